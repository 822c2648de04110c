package infra

// pdf.go: monthly integrated financial analysis report using go-pdf/fpdf.
// One A4 page (more if the month has many items) with:
//   - reference month header
//   - summary block (revenue, expenses, non-cash items, net income, cash flow)
//   - line items table (category, description, amount, cash / non-cash)

import (
	"fmt"
	"io"
	"time"

	"boigordo/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/transform"
)

var reportPrinter = message.NewPrinter(language.BrazilianPortuguese)

// money formats d as "R$ 1.234,56".
func money(d decimal.Decimal) string {
	return reportPrinter.Sprintf("R$ %.2f", d.Round(2).InexactFloat64())
}

// latin1 re-encodes s for fpdf's core fonts, which expect cp1252. Characters
// outside the code page are replaced by '?'.
func latin1(s string) string {
	enc := charmap.Windows1252.NewEncoder()
	out, _, err := transform.String(enc, s)
	if err != nil {
		b := make([]rune, 0, len(s))
		for _, r := range s {
			if _, ok := charmap.Windows1252.EncodeRune(r); ok {
				b = append(b, r)
			} else {
				b = append(b, '?')
			}
		}
		out, _, _ = transform.String(enc, string(b))
	}
	return out
}

// ReportFileName is the archive name of a month's report.
func ReportFileName(month time.Time) string {
	return fmt.Sprintf("financial_analysis_%s.pdf", month.Format("2006-01"))
}

// RenderAnalysisPDF writes the report for a to w.
func RenderAnalysisPDF(a *model.IntegratedFinancialAnalysis, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(latin1("Análise Financeira Integrada "+a.ReferenceMonth.Format("01/2006")), false)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 9, latin1("Análise Financeira Integrada"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, latin1("Mês de referência: "+a.ReferenceMonth.Format("01/2006")+"   Status: "+a.Status), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Summary ──────────────────────────────────────────────────────────────
	summary := []struct {
		label string
		value decimal.Decimal
	}{
		{"Receita total", a.TotalRevenue},
		{"Despesas totais", a.TotalExpenses},
		{"Despesas operacionais", a.OperationalExpenses},
		{"Itens sem impacto de caixa", a.NonCashItems},
		{"Resultado líquido", a.NetIncome},
		{"Fluxo de caixa líquido", a.NetCashFlow},
	}
	labelW := contentW * 0.6
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range summary {
		pdf.CellFormat(labelW, 7, latin1(row.label), "B", 0, "L", false, 0, "")
		pdf.CellFormat(contentW-labelW, 7, latin1(money(row.value)), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	// ── Items ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.22 // category
	col2 := contentW * 0.46 // description
	col3 := contentW * 0.20 // amount
	col4 := contentW * 0.12 // cash

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(col1, 6, "Categoria", "1", 0, "L", true, 0, "")
	pdf.CellFormat(col2, 6, latin1("Descrição"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(col3, 6, "Valor", "1", 0, "R", true, 0, "")
	pdf.CellFormat(col4, 6, "Caixa", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	if len(a.Items) == 0 {
		pdf.CellFormat(contentW, 6, "Nenhum item registrado.", "1", 1, "C", false, 0, "")
	}
	for _, it := range a.Items {
		desc := it.Description
		if r := []rune(desc); len(r) > 60 {
			desc = string(r[:59]) + "..."
		}
		cash := "Não"
		if it.ImpactsCash {
			cash = "Sim"
		}
		pdf.CellFormat(col1, 6, latin1(model.CategoryDisplayName(it.Category)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, latin1(desc), "1", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 6, latin1(money(it.Amount)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, latin1(cash), "1", 1, "C", false, 0, "")
	}

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, latin1("Gerado em "+time.Now().UTC().Format("02/01/2006 15:04")+" UTC"), "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: render: %w", err)
	}
	return nil
}
