// Package reports renders downloadable documents: the quote detail PDF and
// the material cost ledger CSV.
package reports

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/tlaloc-sg/tlaloc-erp/internal/quotes"
)

var (
	colorAccent = &props.Color{Red: 16, Green: 98, Blue: 70}
	colorMuted  = &props.Color{Red: 110, Green: 110, Blue: 110}
)

// QuotePDF renders a quote with its lines and cost breakdown.
func QuotePDF(quote *quotes.Quote) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).WithRightMargin(12).
		WithTopMargin(12).WithBottomMargin(12).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(quote))
	m.AddRows(line.NewRow(1, props.Line{Color: colorAccent, Thickness: 0.5}))
	m.AddRows(lineTableHeader())
	for _, l := range quote.Lines {
		m.AddRows(lineRow(l))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorAccent, Thickness: 0.3}))
	m.AddRows(breakdownRows(quote)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("reports: render quote pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(quote *quotes.Quote) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New("TLALOC Sistemas de Riego", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorAccent, Top: 1,
			}),
			text.New(fmt.Sprintf("Quote #%d", quote.ID), props.Text{
				Size: 9, Top: 9, Color: colorMuted,
			}),
		),
		col.New(5).Add(
			text.New(string(quote.Status), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 1,
			}),
			text.New(quote.QuoteDate.Format("02/01/2006"), props.Text{
				Size: 9, Align: align.Right, Top: 9, Color: colorMuted,
			}),
		),
	)
}

func lineTableHeader() core.Row {
	header := props.Text{Style: fontstyle.Bold, Size: 8}
	return row.New(7).Add(
		col.New(6).Add(text.New("Product", header)),
		col.New(2).Add(text.New("Qty", propsRight(header))),
		col.New(2).Add(text.New("Unit Price", propsRight(header))),
		col.New(2).Add(text.New("Amount", propsRight(header))),
	)
}

func lineRow(l quotes.QuoteLine) core.Row {
	cell := props.Text{Size: 8}
	amount := l.Quantity.Mul(l.UnitPrice)
	return row.New(6).Add(
		col.New(6).Add(text.New(l.ProductName, cell)),
		col.New(2).Add(text.New(l.Quantity.String(), propsRight(cell))),
		col.New(2).Add(text.New(l.UnitPrice.StringFixed(2), propsRight(cell))),
		col.New(2).Add(text.New(amount.StringFixed(2), propsRight(cell))),
	)
}

func breakdownRows(quote *quotes.Quote) []core.Row {
	label := props.Text{Size: 8, Align: align.Right, Color: colorMuted}
	value := props.Text{Size: 8, Align: align.Right}
	totalLabel := props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorAccent}

	rows := []core.Row{
		amountRow("Products", quote.ProductsSubtotal.StringFixed(2), label, value),
		amountRow("Installation", quote.InstallBase.StringFixed(2), label, value),
		amountRow("Transport", quote.TransportCost.StringFixed(2), label, value),
		amountRow("Shipping", quote.ShippingCost.StringFixed(2), label, value),
		amountRow("TOTAL", quote.GrandTotal.StringFixed(2), totalLabel, totalLabel),
	}
	if quote.ValidUntil != nil {
		rows = append(rows, row.New(8).Add(
			col.New(12).Add(text.New(
				"Valid until "+quote.ValidUntil.Format("02/01/2006"),
				props.Text{Size: 8, Align: align.Right, Color: colorMuted, Top: 2},
			)),
		))
	}
	return rows
}

func amountRow(name, amount string, labelProps, valueProps props.Text) core.Row {
	return row.New(6).Add(
		col.New(9).Add(text.New(name, labelProps)),
		col.New(3).Add(text.New(amount, valueProps)),
	)
}

func propsRight(p props.Text) props.Text {
	p.Align = align.Right
	return p
}
