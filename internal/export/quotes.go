// Package export writes quote listings as spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/internal/obs"
	"github.com/diewo77/go-quotes/internal/services"
	"github.com/xuri/excelize/v2"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// columns in sheet order; each is an i18n code.
var columns = []string{
	"quote_number", "issue_date", "valid_until", "client", "title", "status",
	"currency", "subtotal", "discount", "taxable_base", "vat", "grand_total",
}

// Quotes writes one row per quote. Amounts are numeric cells with two
// decimals so the sheet can sum them.
func Quotes(rows []services.ListRow, lang string) ([]byte, error) {
	lang = i18n.Normalize(lang)
	f := excelize.NewFile()
	defer f.Close()

	sheet := i18n.T(lang, "quote")
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	headStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"EBEEF2"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	head := make([]any, len(columns))
	for i, c := range columns {
		head[i] = i18n.T(lang, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headStyle); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	for i, r := range rows {
		q, t := r.Quote, r.Totals
		client := ""
		if q.Client != nil {
			client = q.Client.DisplayName()
		}
		values := []any{
			q.Number,
			q.IssueDate,
			q.ValidUntil,
			client,
			q.Title,
			i18n.T(lang, "status_"+string(q.Status)),
			q.Currency,
			t.Subtotal.Float64(),
			t.Discount.Float64(),
			t.TaxableBase.Float64(),
			t.TaxAmount.Float64(),
			t.GrandTotal.Float64(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("export row %d: %w", i, err)
		}
	}

	if n := len(rows); n > 0 {
		if err := f.SetCellStyle(sheet, "B2", fmt.Sprintf("C%d", n+1), dateStyle); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		if err := f.SetCellStyle(sheet, "H2", fmt.Sprintf("L%d", n+1), amountStyle); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 16)
	_ = f.SetColWidth(sheet, "B", "C", 12)
	_ = f.SetColWidth(sheet, "D", "E", 28)
	_ = f.SetColWidth(sheet, "H", "L", 14)
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	obs.QuoteExportsTotal.Inc()
	return buf.Bytes(), nil
}
