package marketdata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"llm-hedge-fund/internal/types"
)

// csvRow is one line of a <SYMBOL>.csv price file.
type csvRow struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// LoadCSVDir reads <dir>/<SYMBOL>.csv for each symbol.
func LoadCSVDir(dir string, symbols []string) (*Series, error) {
	s := NewSeries()
	for _, sym := range symbols {
		path := filepath.Join(dir, sym+".csv")
		cs, err := readCSV(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", sym, err)
		}
		s.Add(sym, cs...)
	}
	return s, nil
}

func readCSV(path string) ([]types.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []*csvRow
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]types.Candle, 0, len(rows))
	for i, r := range rows {
		d, err := time.Parse("2006-01-02", strings.TrimSpace(r.Date))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad date %q", path, i+2, r.Date)
		}
		out = append(out, types.Candle{
			Ts:    d.Unix(),
			Open:  r.Open,
			High:  r.High,
			Low:   r.Low,
			Close: r.Close,
			Vol:   r.Volume,
		})
	}
	return out, nil
}
