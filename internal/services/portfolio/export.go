package portfolio

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

// ExportCSV writes the snapshot history with one amount column per held currency.
func (t *Tracker) ExportCSV(w io.Writer) error {
	return WriteCSV(w, t.History())
}

// ExportCSVFile writes the history to path.
func (t *Tracker) ExportCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create portfolio export")
	}
	defer f.Close()
	return t.ExportCSV(f)
}

// WriteCSV renders snapshots as CSV.
func WriteCSV(w io.Writer, history []domain.PortfolioSnapshot) error {
	currencySet := make(map[string]struct{})
	for _, s := range history {
		for _, a := range s.Details {
			currencySet[a.Currency] = struct{}{}
		}
	}
	currencies := make([]string, 0, len(currencySet))
	for c := range currencySet {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	cw := csv.NewWriter(w)
	header := []string{"timestamp", "total_value", "profit_loss", "profit_loss_percent", "trades_count", "quote_free"}
	for _, c := range currencies {
		header = append(header, c+"_amount", c+"_value")
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write csv header")
	}

	for _, s := range history {
		byCurrency := make(map[string]domain.AssetValuation, len(s.Details))
		for _, a := range s.Details {
			byCurrency[a.Currency] = a
		}

		row := []string{
			s.Timestamp.UTC().Format(time.RFC3339),
			s.TotalValue.String(),
			s.ProfitLoss.String(),
			s.ProfitLossPercent.StringFixed(4),
			strconv.Itoa(s.TradesCount),
			s.QuoteFree.String(),
		}
		for _, c := range currencies {
			a, ok := byCurrency[c]
			switch {
			case !ok:
				row = append(row, "0", "0")
			case !a.Priced:
				row = append(row, a.Amount.String(), "")
			default:
				row = append(row, a.Amount.String(), a.Value.String())
			}
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}

	cw.Flush()
	return cw.Error()
}
