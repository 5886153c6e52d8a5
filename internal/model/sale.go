package model

import (
	"strings"
	"time"
)

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentCard        PaymentMethod = "card"
	PaymentMobileMoney PaymentMethod = "mobile_money"
	PaymentOther       PaymentMethod = "other"
)

// ParsePaymentMethod accepts the spellings the tills have used over time.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(strings.NewReplacer("-", "_", " ", "_").Replace(s))) {
	case "cash":
		return PaymentCash, true
	case "card", "credit_card", "debit_card":
		return PaymentCard, true
	case "mobile_money", "mobilemoney", "momo", "mpesa":
		return PaymentMobileMoney, true
	case "other":
		return PaymentOther, true
	}
	return "", false
}

type Sale struct {
	ID            string        `db:"id" json:"id"`
	InvoiceNumber string        `db:"invoice_number" json:"invoice_number"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	Items         []LineItem    `db:"-" json:"items,omitempty"`
	ItemCount     *int          `db:"item_count" json:"item_count,omitempty"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"payment_method"`
	CustomerName  string        `db:"customer_name" json:"customer_name,omitempty"`
	CustomerPhone string        `db:"customer_phone" json:"customer_phone,omitempty"`
	Notes         string        `db:"notes" json:"notes,omitempty"`
	TotalAmount   float64       `db:"total_amount" json:"total_amount"`
	OperatorID    string        `db:"operator_id" json:"operator_id,omitempty"`
	TerminalID    string        `db:"terminal_id" json:"terminal_id,omitempty"`
	IsDeleted     bool          `db:"is_deleted" json:"is_deleted"`
}

type LineItem struct {
	ID          string   `db:"id" json:"id"`
	SaleID      string   `db:"sale_id" json:"sale_id"`
	ProductID   string   `db:"product_id" json:"product_id"`
	ProductName string   `db:"product_name" json:"product_name"`
	Quantity    int      `db:"quantity" json:"quantity"`
	UnitPrice   float64  `db:"unit_price" json:"unit_price"`
	Subtotal    float64  `db:"subtotal" json:"subtotal"`
	UnitCost    *float64 `db:"unit_cost" json:"unit_cost,omitempty"`
}

// ResolvedItemCount is the explicit count, else the number of nested line
// items, else 1.
func (s *Sale) ResolvedItemCount() int {
	if s.ItemCount != nil {
		return *s.ItemCount
	}
	if len(s.Items) > 0 {
		return len(s.Items)
	}
	return 1
}

func (s Sale) Clone() Sale {
	c := s
	if s.ItemCount != nil {
		v := *s.ItemCount
		c.ItemCount = &v
	}
	if s.Items != nil {
		c.Items = make([]LineItem, len(s.Items))
		for i, it := range s.Items {
			c.Items[i] = it.Clone()
		}
	}
	return c
}

func (li LineItem) Clone() LineItem {
	c := li
	if li.UnitCost != nil {
		v := *li.UnitCost
		c.UnitCost = &v
	}
	return c
}

type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
