package tradelog

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/logger"
	"llm-hedge-fund/internal/types"
)

const (
	KindFill   = "fill"
	KindEquity = "equity"
)

const ext = ".jsonl"

// Entry is one line of a run journal: either a fill or an end-of-day equity mark.
type Entry struct {
	Kind         string  `json:"kind"`
	Date         string  `json:"date"`
	Symbol       string  `json:"symbol,omitempty"`
	Action       string  `json:"action,omitempty"`
	Qty          int     `json:"qty,omitempty"`
	Price        float64 `json:"price,omitempty"`
	RealizedGain float64 `json:"realized_gain,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
	FillID       string  `json:"fill_id,omitempty"`
	Cash         float64 `json:"cash"`
	TotalValue   float64 `json:"total_value,omitempty"`
	MarginUsed   float64 `json:"margin_used,omitempty"`
}

func FillEntry(f types.Fill) Entry {
	return Entry{
		Kind:         KindFill,
		Date:         f.Date.Format("2006-01-02"),
		Symbol:       f.Symbol,
		Action:       string(f.Action),
		Qty:          f.Quantity,
		Price:        f.Price,
		RealizedGain: f.RealizedGain,
		Confidence:   f.Confidence,
		FillID:       f.ID,
		Cash:         f.CashAfter,
	}
}

func EquityEntry(s types.EquitySnapshot) Entry {
	return Entry{
		Kind:       KindEquity,
		Date:       s.Date.Format("2006-01-02"),
		Cash:       s.Cash,
		TotalValue: s.TotalValue,
		MarginUsed: s.MarginUsed,
	}
}

// Journal appends JSON lines for one run to <dir>/<runID>.jsonl.
type Journal struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *bufio.Writer
}

var _ interfaces.DayObserver = (*Journal)(nil)

func Path(dir, runID string) string {
	return filepath.Join(dir, runID+ext)
}

func Open(dir, runID string) (*Journal, error) {
	p := Path(dir, runID)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Journal{path: p, f: f, w: bufio.NewWriter(f)}, nil
}

func (j *Journal) Path() string { return j.path }

func (j *Journal) Append(entries ...Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(j.w, string(b)); err != nil {
			return err
		}
	}
	return j.w.Flush()
}

// OnDay journals the day's fills followed by its equity mark.
func (j *Journal) OnDay(ctx context.Context, snap types.EquitySnapshot, fills []types.Fill) {
	entries := make([]Entry, 0, len(fills)+1)
	for _, f := range fills {
		entries = append(entries, FillEntry(f))
	}
	entries = append(entries, EquityEntry(snap))
	if err := j.Append(entries...); err != nil {
		logger.ErrorWithErr(ctx, "Failed to append journal", err, "path", j.path)
	}
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.w.Flush(); err != nil {
		_ = j.f.Close()
		return err
	}
	return j.f.Close()
}

// Read loads a journal, transparently handling gzipped files. Malformed lines
// are skipped.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}

	var out []Entry
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// CompressOlder gzips journals in dir last modified more than retentionDays ago.
func CompressOlder(dir string, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || filepath.Ext(p) != ext {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		// if already gz exists, remove original
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			return fmt.Errorf("compress %s: %w", p, err)
		}
		return os.Remove(p)
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
