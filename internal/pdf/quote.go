// Package pdf renders a quote as a printable document with maroto.
package pdf

import (
	"fmt"
	"strings"

	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/money"
	"github.com/diewo77/go-quotes/internal/obs"
	"github.com/diewo77/go-quotes/internal/quote"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// Document is everything printed on a quote. Lines and Totals come from
// the validated aggregate, never from stored columns.
type Document struct {
	Quote   *models.Quote
	Lines   []quote.LineItem
	Totals  quote.Totals
	Company models.CompanySettings
	Lang    string
}

const dateLayout = "02/01/2006"

var (
	gray   = &props.Color{Red: 110, Green: 110, Blue: 110}
	header = &props.Color{Red: 235, Green: 238, Blue: 242}
)

// Render builds the PDF bytes.
func Render(doc Document) ([]byte, error) {
	out, err := render(doc)
	obs.PDFRendered(err)
	return out, err
}

func render(doc Document) ([]byte, error) {
	if doc.Quote == nil {
		return nil, fmt.Errorf("pdf: no quote")
	}
	lang := i18n.Normalize(doc.Lang)
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(15).
		WithPageNumber(props.PageNumber{
			Pattern: i18n.T(lang, "page") + " {current} / {total}",
			Place:   props.RightBottom,
			Size:    8,
			Color:   gray,
		}).
		Build()
	m := maroto.New(cfg)

	if footer := footerRows(doc); len(footer) > 0 {
		if err := m.RegisterFooter(footer...); err != nil {
			return nil, fmt.Errorf("pdf footer: %w", err)
		}
	}
	m.AddRows(headerRows(doc, lang)...)
	m.AddRows(itemRows(doc, lang)...)
	m.AddRows(totalRows(doc, lang)...)
	m.AddRows(noteRows(doc, lang)...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf generate: %w", err)
	}
	return out.GetBytes(), nil
}

func small(a align.Type) props.Text {
	return props.Text{Size: 9, Align: a}
}

func bold(size float64, a align.Type) props.Text {
	return props.Text{Size: size, Style: fontstyle.Bold, Align: a}
}

// headerRows prints the issuer on the left, the client on the right, then
// the quote references.
func headerRows(doc Document, lang string) []core.Row {
	q := doc.Quote
	issuer := []string{doc.Company.Name}
	issuer = append(issuer, doc.Company.AddressLines()...)
	if doc.Company.Email != "" {
		issuer = append(issuer, doc.Company.Email)
	}
	if doc.Company.SIRET != "" {
		issuer = append(issuer, i18n.T(lang, "siret")+" "+doc.Company.SIRET)
	}
	if doc.Company.VATNumber != "" {
		issuer = append(issuer, i18n.T(lang, "vat_number")+" "+doc.Company.VATNumber)
	}
	var client []string
	if q.Client != nil {
		client = append(client, q.Client.DisplayName())
		if q.Client.Company != "" && q.Client.Name != q.Client.Company {
			client = append(client, q.Client.Name)
		}
		client = append(client, q.Client.AddressLines()...)
		if q.Client.VATNumber != "" {
			client = append(client, i18n.T(lang, "vat_number")+" "+q.Client.VATNumber)
		}
	}

	rows := []core.Row{
		text.NewRow(12, strings.ToUpper(i18n.T(lang, "quote")), bold(18, align.Left)),
	}
	for i := 0; i < max(len(issuer), len(client)); i++ {
		left := props.Text{Size: 9}
		if i == 0 {
			left = bold(10, align.Left)
		}
		right := props.Text{Size: 9, Align: align.Right}
		if i == 0 {
			right = bold(10, align.Right)
		}
		rows = append(rows, row.New(5).Add(
			text.NewCol(6, at(issuer, i), left),
			text.NewCol(6, at(client, i), right),
		))
	}
	rows = append(rows,
		row.New(6),
		row.New(5).Add(
			text.NewCol(4, i18n.T(lang, "quote_number")+" "+q.Number, bold(10, align.Left)),
			text.NewCol(4, i18n.T(lang, "issue_date")+" : "+q.IssueDate.Format(dateLayout), small(align.Center)),
			text.NewCol(4, i18n.T(lang, "valid_until")+" : "+q.ValidUntil.Format(dateLayout), small(align.Right)),
		),
	)
	if q.Title != "" {
		rows = append(rows, text.NewRow(6, i18n.T(lang, "title")+" : "+q.Title, small(align.Left)))
	}
	return append(rows, row.New(4))
}

func at(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}

func itemRows(doc Document, lang string) []core.Row {
	cur := doc.Quote.Currency
	head := row.New(7).Add(
		text.NewCol(6, i18n.T(lang, "description"), bold(9, align.Left)),
		text.NewCol(1, i18n.T(lang, "quantity"), bold(9, align.Right)),
		text.NewCol(2, i18n.T(lang, "unit_price"), bold(9, align.Right)),
		text.NewCol(3, i18n.T(lang, "line_total"), bold(9, align.Right)),
	).WithStyle(&props.Cell{BackgroundColor: header})

	rows := []core.Row{head}
	for _, li := range doc.Lines {
		desc := col.New(6).Add(text.New(li.Title(), props.Text{Size: 9, Top: 1}))
		height := 6.0
		if li.Subtitle() != "" {
			desc.Add(text.New(li.Subtitle(), props.Text{Size: 8, Top: 5, Color: gray}))
			height = 10
		}
		rows = append(rows, row.New(height).Add(
			desc,
			text.NewCol(1, li.Quantity().String(), props.Text{Size: 9, Top: 1, Align: align.Right}),
			text.NewCol(2, money.Format(li.UnitPrice(), lang, cur), props.Text{Size: 9, Top: 1, Align: align.Right}),
			text.NewCol(3, money.Format(li.Total(), lang, cur), props.Text{Size: 9, Top: 1, Align: align.Right}),
		))
	}
	return append(rows, line.NewRow(2))
}

// summaryLine is one label/amount pair of the totals block.
type summaryLine struct {
	Label  string
	Amount string
	Strong bool
}

// summary lists the totals block. The discount lines only appear when a
// discount applies.
func summary(doc Document, lang string) []summaryLine {
	cur := doc.Quote.Currency
	t := doc.Totals
	f := func(m money.Money) string { return money.Format(m, lang, cur) }
	out := []summaryLine{{Label: i18n.T(lang, "subtotal"), Amount: f(t.Subtotal)}}
	if !t.Discount.IsZero() {
		out = append(out,
			summaryLine{Label: i18n.T(lang, "discount"), Amount: "-" + f(t.Discount)},
			summaryLine{Label: i18n.T(lang, "taxable_base"), Amount: f(t.TaxableBase)},
		)
	}
	rate := doc.Quote.VATRate.String()
	if lang == i18n.FR {
		rate = strings.Replace(rate, ".", ",", 1)
	}
	out = append(out,
		summaryLine{Label: fmt.Sprintf("%s %s %%", i18n.T(lang, "vat"), rate), Amount: f(t.TaxAmount)},
		summaryLine{Label: i18n.T(lang, "grand_total"), Amount: f(t.GrandTotal), Strong: true},
	)
	return out
}

func totalRows(doc Document, lang string) []core.Row {
	var rows []core.Row
	for _, s := range summary(doc, lang) {
		label, amount := small(align.Right), small(align.Right)
		if s.Strong {
			label, amount = bold(11, align.Right), bold(11, align.Right)
		}
		rows = append(rows, row.New(6).Add(
			col.New(6),
			text.NewCol(3, s.Label, label),
			text.NewCol(3, s.Amount, amount),
		))
	}
	return rows
}

func noteRows(doc Document, lang string) []core.Row {
	var rows []core.Row
	add := func(label, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		rows = append(rows, row.New(6), text.NewRow(6, label, bold(9, align.Left)))
		for _, l := range strings.Split(body, "\n") {
			rows = append(rows, text.NewRow(5, l, small(align.Left)))
		}
	}
	add(i18n.T(lang, "terms"), doc.Quote.Terms)
	add(i18n.T(lang, "notes"), doc.Quote.Notes)
	return rows
}

func footerRows(doc Document) []core.Row {
	var parts []string
	if doc.Company.FooterText != "" {
		parts = append(parts, doc.Company.FooterText)
	}
	if doc.Company.RCS != "" {
		parts = append(parts, "RCS "+doc.Company.RCS)
	}
	if doc.Company.Capital != "" {
		parts = append(parts, doc.Company.Capital)
	}
	if len(parts) == 0 {
		return nil
	}
	return []core.Row{text.NewRow(8, strings.Join(parts, " - "), props.Text{Size: 7, Align: align.Center, Color: gray})}
}
