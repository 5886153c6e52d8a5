package dto

import "time"

// Receipt amounts are preformatted to two decimals.
type Receipt struct {
	SaleID        string        `json:"sale_id"`
	InvoiceNumber string        `json:"invoice_number"`
	Date          time.Time     `json:"date"`
	Lines         []ReceiptLine `json:"lines"`
	Total         string        `json:"total"`
	PaymentMethod string        `json:"payment_method"`
	CustomerName  string        `json:"customer_name,omitempty"`
	CustomerPhone string        `json:"customer_phone,omitempty"`
	Text          string        `json:"text"`
}

type ReceiptLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}
