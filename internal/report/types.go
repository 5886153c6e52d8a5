package report

import (
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/model"
)

type Kind string

const (
	KindSales         Kind = "sales"
	KindInventory     Kind = "inventory"
	KindLowStock      Kind = "low_stock"
	KindExpiring      Kind = "expiring"
	KindIncome        Kind = "income_statement"
	KindBalanceSheet  Kind = "balance_sheet"
	KindCashFlow      Kind = "cash_flow"
	KindProfitAndLoss Kind = "profit_and_loss"
)

// Meta echoes the parameters a report was generated with.
type Meta struct {
	Kind        Kind       `json:"kind"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	AsOf        *time.Time `json:"as_of,omitempty"`
	Category    string     `json:"category,omitempty"`
	WithinDays  int        `json:"within_days,omitempty"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// SalesRow is one sale. UncostedItems are lines with no resolvable cost;
// they count as zero cost, so a non-zero value means Profit is overstated.
type SalesRow struct {
	SaleID          string              `json:"sale_id"`
	InvoiceNumber   string              `json:"invoice_number"`
	Date            time.Time           `json:"date"`
	Items           int                 `json:"items"`
	PaymentMethod   model.PaymentMethod `json:"payment_method"`
	Customer        string              `json:"customer,omitempty"`
	Total           float64             `json:"total"`
	Profit          float64             `json:"profit"`
	ProfitEstimated bool                `json:"profit_estimated"`
	UncostedItems   int                 `json:"uncosted_items"`
}

type SalesReport struct {
	Meta
	Rows            []SalesRow                      `json:"rows"`
	SaleCount       int                             `json:"sale_count"`
	ItemCount       int                             `json:"item_count"`
	TotalAmount     float64                         `json:"total_amount"`
	AverageSale     float64                         `json:"average_sale"`
	Profit          float64                         `json:"profit"`
	ProfitEstimated bool                            `json:"profit_estimated"`
	UncostedItems   int                             `json:"uncosted_items"`
	ByPayment       map[model.PaymentMethod]float64 `json:"by_payment_method"`
	Warnings        []string                        `json:"warnings,omitempty"`
}

type InventoryRow struct {
	ProductID       string            `json:"product_id"`
	Name            string            `json:"name"`
	Category        string            `json:"category"`
	QuantityInStock int               `json:"quantity_in_stock"`
	QuantityOnShelf int               `json:"quantity_on_shelf"`
	ReorderLevel    int               `json:"reorder_level"`
	SellingPrice    float64           `json:"selling_price"`
	UnitCost        *float64          `json:"unit_cost,omitempty"`
	Value           *float64          `json:"value,omitempty"`
	RetailValue     float64           `json:"retail_value"`
	Status          model.StockStatus `json:"status"`
}

type InventoryReport struct {
	Meta
	Rows             []InventoryRow `json:"rows"`
	ProductCount     int            `json:"product_count"`
	TotalUnits       int            `json:"total_units"`
	TotalValue       float64        `json:"total_value"`
	TotalRetailValue float64        `json:"total_retail_value"`
	InStock          int            `json:"in_stock"`
	LowStock         int            `json:"low_stock"`
	OutOfStock       int            `json:"out_of_stock"`
	// Unvalued counts products left out of TotalValue for lack of cost data.
	Unvalued int `json:"unvalued"`
}

type LowStockReport struct {
	Meta
	Rows       []InventoryRow `json:"rows"`
	LowStock   int            `json:"low_stock"`
	OutOfStock int            `json:"out_of_stock"`
}

type ExpiryStatus string

const (
	ExpiryExpired ExpiryStatus = "Expired"
	ExpirySoon    ExpiryStatus = "Expiring Soon"
	ExpiryGood    ExpiryStatus = "Good"
)

type ExpiryRow struct {
	ProductID       string       `json:"product_id"`
	Name            string       `json:"name"`
	Category        string       `json:"category"`
	ExpiryDate      time.Time    `json:"expiry_date"`
	DaysUntilExpiry int          `json:"days_until_expiry"`
	Status          ExpiryStatus `json:"status"`
	Urgent          bool         `json:"urgent"`
	QuantityInStock int          `json:"quantity_in_stock"`
	ValueAtRisk     *float64     `json:"value_at_risk,omitempty"`
}

type ExpiryReport struct {
	Meta
	Rows         []ExpiryRow `json:"rows"`
	Expired      int         `json:"expired"`
	ExpiringSoon int         `json:"expiring_soon"`
	Urgent       int         `json:"urgent"`
	Good         int         `json:"good"`
	ValueAtRisk  float64     `json:"value_at_risk"`
}

// IncomeStatement figures are exact only when Estimated is false. Otherwise
// EstimatedSales sales had their cost of goods set to a fixed share of
// revenue, contributing EstimatedCOGS to COGS.
type IncomeStatement struct {
	Meta
	Revenue           float64  `json:"revenue"`
	COGS              float64  `json:"cogs"`
	GrossProfit       float64  `json:"gross_profit"`
	GrossMarginPct    float64  `json:"gross_margin_pct"`
	OperatingExpenses float64  `json:"operating_expenses"`
	NetIncome         float64  `json:"net_income"`
	NetMarginPct      float64  `json:"net_margin_pct"`
	SaleCount         int      `json:"sale_count"`
	Estimated         bool     `json:"estimated"`
	EstimatedSales    int      `json:"estimated_sales"`
	EstimatedCOGS     float64  `json:"estimated_cogs"`
	UncostedItems     int      `json:"uncosted_items"`
	Warnings          []string `json:"warnings,omitempty"`
}

// BalanceSheet cash is the sum of every sale up to AsOf. It does not model
// credit, refunds or money leaving the till and is always an approximation.
type BalanceSheet struct {
	Meta
	Cash               float64 `json:"cash"`
	AccountsReceivable float64 `json:"accounts_receivable"`
	Inventory          float64 `json:"inventory"`
	FixedAssets        float64 `json:"fixed_assets"`
	TotalAssets        float64 `json:"total_assets"`
	AccountsPayable    float64 `json:"accounts_payable"`
	TotalLiabilities   float64 `json:"total_liabilities"`
	Equity             float64 `json:"equity"`
	CashApproximated   bool    `json:"cash_approximated"`
	UnvaluedProducts   int     `json:"unvalued_products"`
}

type CashFlowStatement struct {
	Meta
	CashFromSales      float64 `json:"cash_from_sales"`
	InventoryPurchases float64 `json:"inventory_purchases"`
	Operating          float64 `json:"operating"`
	Investing          float64 `json:"investing"`
	Financing          float64 `json:"financing"`
	NetChange          float64 `json:"net_change"`
	OpeningCash        float64 `json:"opening_cash"`
	ClosingCash        float64 `json:"closing_cash"`
}

type PLLine struct {
	Label            string  `json:"label"`
	Amount           float64 `json:"amount"`
	PercentOfRevenue float64 `json:"percent_of_revenue"`
}

type ProfitAndLoss struct {
	Meta
	Lines     []PLLine `json:"lines"`
	Estimated bool     `json:"estimated"`
	Warnings  []string `json:"warnings,omitempty"`
}
