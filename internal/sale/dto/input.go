package dto

type ItemInput struct {
	ProductID string
	Quantity  int
	// UnitPrice overrides the catalog selling price when set.
	UnitPrice *float64
}

type CompleteSaleInput struct {
	Items         []ItemInput
	PaymentMethod string
	CustomerName  string
	CustomerPhone string
	Notes         string
	OperatorID    string
	TerminalID    string
}
