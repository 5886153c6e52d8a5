package usecase

import (
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"github.com/fekuna/omnipos-pharmacy/internal/sale/dto"
	"github.com/shopspring/decimal"
)

const receiptWidth = 40

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func buildReceipt(s *model.Sale) *dto.Receipt {
	r := &dto.Receipt{
		SaleID:        s.ID,
		InvoiceNumber: s.InvoiceNumber,
		Date:          s.CreatedAt,
		Total:         money(s.TotalAmount),
		PaymentMethod: string(s.PaymentMethod),
		CustomerName:  s.CustomerName,
		CustomerPhone: s.CustomerPhone,
	}
	for _, it := range s.Items {
		r.Lines = append(r.Lines, dto.ReceiptLine{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: money(it.UnitPrice),
			Subtotal:  money(it.Subtotal),
		})
	}
	r.Text = renderReceipt(r)
	return r
}

// renderReceipt lays the receipt out for a narrow thermal printer.
func renderReceipt(r *dto.Receipt) string {
	var b strings.Builder
	rule := strings.Repeat("-", receiptWidth)
	fmt.Fprintf(&b, "Invoice: %s\n", r.InvoiceNumber)
	fmt.Fprintf(&b, "Date:    %s\n", r.Date.Format("2006-01-02 15:04"))
	if r.CustomerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", r.CustomerName)
	}
	b.WriteString(rule + "\n")
	for _, l := range r.Lines {
		fmt.Fprintf(&b, "%s\n", l.Name)
		left := fmt.Sprintf("  %d x %s", l.Quantity, l.UnitPrice)
		fmt.Fprintf(&b, "%s%*s\n", left, receiptWidth-len(left), l.Subtotal)
	}
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%s%*s\n", "TOTAL", receiptWidth-len("TOTAL"), r.Total)
	fmt.Fprintf(&b, "Paid by: %s\n", r.PaymentMethod)
	return b.String()
}
