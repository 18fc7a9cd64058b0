package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/gocarina/gocsv"

	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/tradelog"
	"llm-hedge-fund/internal/types"
)

type equityRow struct {
	Date           string  `csv:"date"`
	Cash           float64 `csv:"cash"`
	PositionsValue float64 `csv:"positions_value"`
	TotalValue     float64 `csv:"total_value"`
	LongExposure   float64 `csv:"long_exposure"`
	ShortExposure  float64 `csv:"short_exposure"`
	MarginUsed     float64 `csv:"margin_used"`
}

// SymbolRow aggregates one instrument's fills. The TOTAL row sums values and P&L only.
type SymbolRow struct {
	Symbol      string  `csv:"symbol"`
	BuyQty      int     `csv:"buy_qty"`
	BuyAvg      float64 `csv:"buy_avg"`
	SellQty     int     `csv:"sell_qty"`
	SellAvg     float64 `csv:"sell_avg"`
	ShortQty    int     `csv:"short_qty"`
	ShortAvg    float64 `csv:"short_avg"`
	CoverQty    int     `csv:"cover_qty"`
	CoverAvg    float64 `csv:"cover_avg"`
	RealizedPnL float64 `csv:"realized_pnl"`
	GrossBuy    float64 `csv:"gross_buy_value"`
	GrossSell   float64 `csv:"gross_sell_value"`
}

type summaryDoc struct {
	RunID    string                  `json:"run_id"`
	Summary  types.Summary           `json:"summary"`
	Final    types.PortfolioSnapshot `json:"final"`
	DataGaps []types.DataGap         `json:"data_gaps,omitempty"`
}

func writeCSV(path string, rows any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(rows, out); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// WriteEquityCurve writes one row per equity snapshot.
func WriteEquityCurve(path string, snaps []types.EquitySnapshot) error {
	rows := make([]*equityRow, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, &equityRow{
			Date:           s.Date.Format("2006-01-02"),
			Cash:           s.Cash,
			PositionsValue: s.PositionsValue,
			TotalValue:     s.TotalValue,
			LongExposure:   s.LongExposure,
			ShortExposure:  s.ShortExposure,
			MarginUsed:     s.MarginUsed,
		})
	}
	return writeCSV(path, rows)
}

type agg struct {
	row                                 SymbolRow
	buyVal, sellVal, shortVal, coverVal float64
}

func avg(value float64, qty int) float64 {
	if qty == 0 {
		return 0
	}
	return value / float64(qty)
}

// Aggregate folds journal fills into per-symbol rows sorted by symbol, followed
// by a TOTAL row. It returns nil when there are no fills.
func Aggregate(entries []tradelog.Entry) []*SymbolRow {
	aggs := map[string]*agg{}
	for _, e := range entries {
		if e.Kind != tradelog.KindFill {
			continue
		}
		a := aggs[e.Symbol]
		if a == nil {
			a = &agg{row: SymbolRow{Symbol: e.Symbol}}
			aggs[e.Symbol] = a
		}
		v := float64(e.Qty) * e.Price
		switch types.Action(e.Action) {
		case types.Buy:
			a.row.BuyQty += e.Qty
			a.buyVal += v
		case types.Sell:
			a.row.SellQty += e.Qty
			a.sellVal += v
		case types.Short:
			a.row.ShortQty += e.Qty
			a.shortVal += v
		case types.Cover:
			a.row.CoverQty += e.Qty
			a.coverVal += v
		}
		a.row.RealizedPnL += e.RealizedGain
	}
	if len(aggs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := &SymbolRow{Symbol: "TOTAL"}
	rows := make([]*SymbolRow, 0, len(keys)+1)
	for _, k := range keys {
		a := aggs[k]
		r := a.row
		r.BuyAvg = avg(a.buyVal, r.BuyQty)
		r.SellAvg = avg(a.sellVal, r.SellQty)
		r.ShortAvg = avg(a.shortVal, r.ShortQty)
		r.CoverAvg = avg(a.coverVal, r.CoverQty)
		// short opens and cover closes count on the sell and buy side respectively
		r.GrossBuy = a.buyVal + a.coverVal
		r.GrossSell = a.sellVal + a.shortVal
		rows = append(rows, &r)

		total.RealizedPnL += r.RealizedPnL
		total.GrossBuy += r.GrossBuy
		total.GrossSell += r.GrossSell
	}
	return append(rows, total)
}

// SummarizeJournal writes the per-symbol trade summary of a journal to outPath.
// It returns "" without writing when the journal holds no fills.
func SummarizeJournal(journalPath, outPath string) (string, error) {
	entries, err := tradelog.Read(journalPath)
	if err != nil {
		return "", err
	}
	rows := Aggregate(entries)
	if rows == nil {
		return "", nil
	}
	if err := writeCSV(outPath, rows); err != nil {
		return "", err
	}
	return outPath, nil
}

// WriteSummary writes the run's summary statistics and final portfolio as JSON.
func WriteSummary(path string, res *types.Result) error {
	doc := summaryDoc{RunID: res.RunID, Summary: res.Summary, Final: res.Final, DataGaps: res.DataGaps}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Writer writes every report for a run under one directory, named by run id.
type Writer struct {
	dir string
}

var _ interfaces.Reporter = (*Writer)(nil)

func New(dir string) *Writer {
	return &Writer{dir: dir}
}

func (w *Writer) Report(ctx context.Context, res *types.Result, journalPath string) (interfaces.ReportPaths, error) {
	p := interfaces.ReportPaths{
		EquityCurve: filepath.Join(w.dir, res.RunID+"-equity.csv"),
		Summary:     filepath.Join(w.dir, res.RunID+"-summary.json"),
	}
	if err := WriteEquityCurve(p.EquityCurve, res.Snapshots); err != nil {
		return p, err
	}
	if journalPath != "" {
		trades, err := SummarizeJournal(journalPath, filepath.Join(w.dir, res.RunID+"-trades.csv"))
		if err != nil {
			return p, err
		}
		p.Trades = trades
	}
	if err := WriteSummary(p.Summary, res); err != nil {
		return p, err
	}
	return p, nil
}
