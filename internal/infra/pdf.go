package infra

// pdf.go: order sheet rendered with go-pdf/fpdf:
//   - team name and order number header
//   - client block
//   - line table (product, supplier, quantity, unit price, total)
//   - bold total
//   - delivery block with advance payment and remaining balance

import (
	"fmt"
	"io"

	"github.com/Cozta1/sistema-encomendas-V2/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

var statusLabels = map[string]string{
	model.OrderCreated:    "Criada",
	model.OrderQuotation:  "Em cotação",
	model.OrderApproved:   "Aprovada",
	model.OrderInProgress: "Em andamento",
	model.OrderReady:      "Pronta",
	model.OrderDelivered:  "Entregue",
	model.OrderCancelled:  "Cancelada",
}

func brl(d decimal.Decimal) string { return "R$ " + d.StringFixed(2) }

// RenderOrderPDF writes the A4 order sheet for a fully loaded order
// (client, lines with product and supplier, delivery) to w.
func RenderOrderPDF(w io.Writer, team *model.Team, o *model.Order) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetTitle(fmt.Sprintf("Encomenda %d", o.Number), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	teamName := ""
	if team != nil {
		teamName = team.Name
	}
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 8, tr(teamName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW/2, 7, tr(fmt.Sprintf("Encomenda Nº %d", o.Number)), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	status := statusLabels[o.Status]
	if status == "" {
		status = o.Status
	}
	pdf.CellFormat(contentW/2, 7, tr("Status: "+status), "", 1, "R", false, 0, "")
	pdf.CellFormat(contentW/2, 6, tr("Data: "+o.OrderDate.Format("02/01/2006")), "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 6, tr("Responsável: "+o.CreatedByName), "", 1, "R", false, 0, "")
	pdf.Ln(2)
	pdf.Line(12, pdf.GetY(), pageW-12, pdf.GetY())
	pdf.Ln(3)

	// ── Client ───────────────────────────────────────────────────────────────
	if c := o.Client; c != nil {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentW, 6, tr(fmt.Sprintf("Cliente: %s (%s)", c.Name, c.Code)), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		addr := c.Address
		if c.Neighborhood != "" {
			addr += " - " + c.Neighborhood
		}
		pdf.CellFormat(contentW, 5, tr(addr), "", 1, "L", false, 0, "")
		if c.Reference != "" {
			pdf.CellFormat(contentW, 5, tr("Referência: "+c.Reference), "", 1, "L", false, 0, "")
		}
		if c.Phone != "" {
			pdf.CellFormat(contentW, 5, tr("Telefone: "+c.Phone), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	// ── Lines ────────────────────────────────────────────────────────────────
	cols := []float64{contentW * 0.34, contentW * 0.24, contentW * 0.10, contentW * 0.16, contentW * 0.16}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range []string{"Produto", "Fornecedor", "Qtd", "Preço unit.", "Total"} {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(cols[i], 6, tr(h), "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, l := range o.Lines {
		product, supplier := "", ""
		if l.Product != nil {
			product = l.Product.Name
		}
		if l.Supplier != nil {
			supplier = l.Supplier.Name
		}
		pdf.CellFormat(cols[0], 6, tr(truncate(product, 40)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(cols[1], 6, tr(truncate(supplier, 28)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(cols[2], 6, fmt.Sprintf("%d", l.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(cols[3], 6, tr(brl(l.UnitPrice)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(cols[4], 6, tr(brl(l.Total)), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	labelW := cols[0] + cols[1] + cols[2] + cols[3]
	pdf.CellFormat(labelW, 7, "TOTAL", "1", 0, "R", false, 0, "")
	pdf.CellFormat(cols[4], 7, tr(brl(o.Total)), "1", 1, "R", false, 0, "")

	if o.Notes != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(contentW, 5, tr("Observações: "+o.Notes), "", "L", false)
	}

	// ── Delivery ─────────────────────────────────────────────────────────────
	if d := o.Delivery; d != nil {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(contentW, 7, "Entrega", "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		rows := [][2]string{
			{"Data agendada", d.ScheduledDate.Format("02/01/2006")},
			{"Responsável", d.ResponsibleName},
			{"Sinal pago", brl(d.AdvancePayment)},
			{"Saldo restante", brl(o.Total.Sub(d.AdvancePayment))},
		}
		if d.CompletedAt != nil {
			rows = append(rows,
				[2]string{"Entregue em", d.CompletedAt.Format("02/01/2006 15:04")},
				[2]string{"Entregue por", d.DeliveredBy},
			)
			signed := "Não"
			if d.SignatureConfirmed {
				signed = "Sim"
			}
			rows = append(rows, [2]string{"Assinatura confirmada", signed})
		}
		for _, r := range rows {
			pdf.CellFormat(contentW*0.35, 5, tr(r[0]+":"), "", 0, "L", false, 0, "")
			pdf.CellFormat(contentW*0.65, 5, tr(r[1]), "", 1, "L", false, 0, "")
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: render order %d: %w", o.Number, err)
	}
	return nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
