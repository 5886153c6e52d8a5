package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/model"
)

// Records written by older till versions use a mix of snake_case, camelCase
// and renamed columns. Every accepted spelling is listed here once; nothing
// downstream of this file looks at raw keys.
var (
	productKeys = struct {
		id, name, category, stock, shelf, cost, bulkCost, bought, price, reorder, expiry, active, created, updated []string
	}{
		id:       []string{"id", "product_id", "productId", "_id"},
		name:     []string{"name", "product_name", "productName"},
		category: []string{"category", "category_name", "categoryName"},
		stock:    []string{"quantity_in_stock", "quantityInStock", "stock_quantity", "stockQuantity", "quantity", "stock"},
		shelf:    []string{"quantity_on_shelf", "quantityOnShelf", "shelf_quantity", "shelfQuantity", "on_shelf"},
		cost:     []string{"cost_price", "costPrice", "unit_cost", "unitCost", "cost"},
		bulkCost: []string{"total_bulk_cost", "totalBulkCost", "bulk_cost", "bulkCost"},
		bought:   []string{"quantity_purchased", "quantityPurchased", "bulk_quantity", "bulkQuantity"},
		price:    []string{"selling_price", "sellingPrice", "price", "unit_price", "unitPrice"},
		reorder:  []string{"reorder_level", "reorderLevel", "reorder_point", "reorderPoint", "min_stock", "minStock"},
		expiry:   []string{"expiry_date", "expiryDate", "expiration_date", "expirationDate", "expires_at"},
		active:   []string{"is_active", "isActive", "active"},
		created:  []string{"created_at", "createdAt"},
		updated:  []string{"updated_at", "updatedAt"},
	}

	saleKeys = struct {
		id, invoice, created, total, count, items, payment, customer, phone, notes, operator, terminal, deleted []string
	}{
		id:       []string{"id", "sale_id", "saleId", "_id"},
		invoice:  []string{"invoice_number", "invoiceNumber", "invoice_no", "invoice"},
		created:  []string{"created_at", "createdAt", "timestamp", "sale_date", "saleDate", "date"},
		total:    []string{"total_amount", "totalAmount", "grand_total", "total", "amount"},
		count:    []string{"item_count", "itemCount", "items_count", "total_items", "totalItems"},
		items:    []string{"items", "line_items", "lineItems", "sale_items"},
		payment:  []string{"payment_method", "paymentMethod", "payment"},
		customer: []string{"customer_name", "customerName"},
		phone:    []string{"customer_phone", "customerPhone", "phone"},
		notes:    []string{"notes", "note"},
		operator: []string{"operator_id", "operatorId", "cashier_id", "cashierId"},
		terminal: []string{"terminal_id", "terminalId"},
		deleted:  []string{"is_deleted", "isDeleted", "deleted"},
	}

	lineItemKeys = struct {
		id, sale, product, name, qty, price, subtotal, cost []string
	}{
		id:       []string{"id", "item_id", "itemId"},
		sale:     []string{"sale_id", "saleId"},
		product:  []string{"product_id", "productId", "medicine_id"},
		name:     []string{"product_name", "productName", "name"},
		qty:      []string{"quantity", "qty"},
		price:    []string{"unit_price", "unitPrice", "price", "selling_price"},
		subtotal: []string{"subtotal", "sub_total", "subTotal", "line_total", "lineTotal"},
		cost:     []string{"unit_cost", "unitCost", "cost_price", "costPrice"},
	}
)

var ErrMissingID = errors.New("record has no id")

// Rejected describes a record dropped while decoding a list.
type Rejected struct {
	Index int
	Err   error
}

func NormalizeProduct(raw map[string]any) (model.Product, error) {
	k := productKeys
	p := model.Product{
		ID:       str(raw, k.id...),
		Name:     str(raw, k.name...),
		Category: strings.TrimSpace(str(raw, k.category...)),
		IsActive: true,
	}
	if p.ID == "" {
		return p, ErrMissingID
	}
	if v, ok := integer(raw, k.stock...); ok {
		p.QuantityInStock = max(v, 0)
	}
	if v, ok := integer(raw, k.shelf...); ok {
		p.QuantityOnShelf = max(v, 0)
	}
	p.ClampShelf()
	if v, ok := number(raw, k.cost...); ok && v >= 0 {
		p.CostPrice = &v
	}
	if v, ok := number(raw, k.bulkCost...); ok && v >= 0 {
		p.TotalBulkCost = &v
	}
	if v, ok := integer(raw, k.bought...); ok && v > 0 {
		p.QuantityBought = &v
	}
	if v, ok := number(raw, k.price...); ok {
		p.SellingPrice = math.Max(v, 0)
	}
	if v, ok := integer(raw, k.reorder...); ok {
		p.ReorderLevel = max(v, 0)
	}
	if v, ok := timestamp(raw, k.expiry...); ok {
		p.ExpiryDate = &v
	}
	if v, ok := boolean(raw, k.active...); ok {
		p.IsActive = v
	}
	p.CreatedAt, _ = timestamp(raw, k.created...)
	p.UpdatedAt, _ = timestamp(raw, k.updated...)
	return p, nil
}

func NormalizeSale(raw map[string]any) (model.Sale, error) {
	k := saleKeys
	s := model.Sale{
		ID:            str(raw, k.id...),
		InvoiceNumber: str(raw, k.invoice...),
		CustomerName:  str(raw, k.customer...),
		CustomerPhone: str(raw, k.phone...),
		Notes:         str(raw, k.notes...),
		OperatorID:    str(raw, k.operator...),
		TerminalID:    str(raw, k.terminal...),
	}
	if s.ID == "" {
		return s, ErrMissingID
	}
	s.CreatedAt, _ = timestamp(raw, k.created...)
	if pm, ok := model.ParsePaymentMethod(str(raw, k.payment...)); ok {
		s.PaymentMethod = pm
	} else {
		s.PaymentMethod = model.PaymentOther
	}
	if v, ok := integer(raw, k.count...); ok && v >= 0 {
		s.ItemCount = &v
	}
	if v, ok := boolean(raw, k.deleted...); ok {
		s.IsDeleted = v
	}
	if rawItems, ok := lookup(raw, k.items...); ok {
		for _, ri := range asList(rawItems) {
			m, ok := ri.(map[string]any)
			if !ok {
				continue
			}
			it := NormalizeLineItem(m)
			if it.SaleID == "" {
				it.SaleID = s.ID
			}
			s.Items = append(s.Items, it)
		}
	}
	if v, ok := number(raw, k.total...); ok {
		s.TotalAmount = v
	} else {
		for _, it := range s.Items {
			s.TotalAmount += it.Subtotal
		}
	}
	return s, nil
}

func NormalizeLineItem(raw map[string]any) model.LineItem {
	k := lineItemKeys
	it := model.LineItem{
		ID:          str(raw, k.id...),
		SaleID:      str(raw, k.sale...),
		ProductID:   str(raw, k.product...),
		ProductName: str(raw, k.name...),
	}
	if v, ok := integer(raw, k.qty...); ok {
		it.Quantity = v
	}
	if v, ok := number(raw, k.price...); ok {
		it.UnitPrice = v
	}
	if v, ok := number(raw, k.subtotal...); ok {
		it.Subtotal = v
	} else {
		it.Subtotal = float64(it.Quantity) * it.UnitPrice
	}
	if v, ok := number(raw, k.cost...); ok && v >= 0 {
		it.UnitCost = &v
	}
	return it
}

// DecodeProducts accepts either a bare JSON array or a {"data": [...]} wrapper.
// Records that cannot be normalized are skipped and reported in rejected.
func DecodeProducts(data []byte) (products []model.Product, rejected []Rejected, err error) {
	list, err := decodeList(data)
	if err != nil {
		return nil, nil, err
	}
	products = make([]model.Product, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			rejected = append(rejected, Rejected{Index: i, Err: fmt.Errorf("unexpected %T", item)})
			continue
		}
		p, err := NormalizeProduct(m)
		if err != nil {
			rejected = append(rejected, Rejected{Index: i, Err: err})
			continue
		}
		products = append(products, p)
	}
	return products, rejected, nil
}

func DecodeSales(data []byte) (sales []model.Sale, rejected []Rejected, err error) {
	list, err := decodeList(data)
	if err != nil {
		return nil, nil, err
	}
	sales = make([]model.Sale, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			rejected = append(rejected, Rejected{Index: i, Err: fmt.Errorf("unexpected %T", item)})
			continue
		}
		s, err := NormalizeSale(m)
		if err != nil {
			rejected = append(rejected, Rejected{Index: i, Err: err})
			continue
		}
		sales = append(sales, s)
	}
	return sales, rejected, nil
}

// DecodeSale decodes a single sale object, optionally wrapped in {"data": {...}}.
func DecodeSale(data []byte) (model.Sale, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.Sale{}, fmt.Errorf("decode sale: %w", err)
	}
	m, ok := unwrap(doc).(map[string]any)
	if !ok {
		return model.Sale{}, fmt.Errorf("decode sale: unexpected %T", doc)
	}
	return NormalizeSale(m)
}

func decodeList(data []byte) ([]any, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	list, ok := unwrap(doc).([]any)
	if !ok {
		return nil, fmt.Errorf("decode list: unexpected %T", doc)
	}
	return list, nil
}

func unwrap(doc any) any {
	if m, ok := doc.(map[string]any); ok {
		if inner, ok := m["data"]; ok {
			return inner
		}
	}
	return doc
}

func asList(v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case []map[string]any:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out
	case string:
		return jsonList([]byte(l))
	case []byte:
		return jsonList(l)
	}
	return nil
}

func jsonList(b []byte) []any {
	var out []any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

func lookup(raw map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func str(raw map[string]any, keys ...string) string {
	v, ok := lookup(raw, keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func number(raw map[string]any, keys ...string) (float64, bool) {
	v, ok := lookup(raw, keys...)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		return parseNumber(t)
	case []byte:
		return parseNumber(string(t))
	}
	return 0, false
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func integer(raw map[string]any, keys ...string) (int, bool) {
	f, ok := number(raw, keys...)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}

func boolean(raw map[string]any, keys ...string) (bool, bool) {
	v, ok := lookup(raw, keys...)
	if !ok {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case float64:
		return t != 0, true
	case int64:
		return t != 0, true
	case int:
		return t != 0, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return b, err == nil
	case []byte:
		b, err := strconv.ParseBool(string(t))
		return b, err == nil
	}
	return false, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func timestamp(raw map[string]any, keys ...string) (time.Time, bool) {
	v, ok := lookup(raw, keys...)
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	case float64:
		return fromEpoch(int64(t)), true
	case int64:
		return fromEpoch(t), true
	}
	return time.Time{}, false
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// fromEpoch treats anything past year 5138 in seconds as milliseconds.
func fromEpoch(n int64) time.Time {
	if n > 1e11 || n < -1e11 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
