package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/gateway"
	"github.com/fekuna/omnipos-pharmacy/internal/logger"
	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type PGRepository struct {
	DB     *sqlx.DB
	logger logger.ZapLogger
}

func NewPGRepository(db *sqlx.DB, log logger.ZapLogger) *PGRepository {
	return &PGRepository{DB: db, logger: log}
}

var _ gateway.Gateway = (*PGRepository)(nil)

// Rows are scanned into maps and handed to the gateway normalizers so that
// databases migrated from older till versions, whose columns were named
// differently, still read into the canonical model.
func (r *PGRepository) scanMaps(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := r.DB.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]interface{}
	for rows.Next() {
		m := map[string]interface{}{}
		if err := rows.MapScan(m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PGRepository) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.scanMaps(ctx, `SELECT * FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		p, err := gateway.NormalizeProduct(row)
		if err != nil {
			r.logger.Warn("skipping unreadable product row", zap.Error(err), zap.Any("row", row["name"]))
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *PGRepository) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	rows, err := r.scanMaps(ctx, `SELECT * FROM products WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gateway.ErrNotFound
	}
	p, err := gateway.NormalizeProduct(rows[0])
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", id, err)
	}
	return &p, nil
}

func (r *PGRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET name = :name,
            category = :category,
            quantity_in_stock = :quantity_in_stock,
            quantity_on_shelf = :quantity_on_shelf,
            cost_price = :cost_price,
            total_bulk_cost = :total_bulk_cost,
            quantity_purchased = :quantity_purchased,
            selling_price = :selling_price,
            reorder_level = :reorder_level,
            expiry_date = :expiry_date,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id
    `
	res, err := r.DB.NamedExecContext(ctx, query, p)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return gateway.ErrNotFound
	}
	return nil
}

func (r *PGRepository) GetSalesInRange(ctx context.Context, start, end time.Time, category string) ([]model.Sale, error) {
	conditions := []string{"s.is_deleted = false", "s.created_at >= $1", "s.created_at <= $2"}
	args := []interface{}{start, end}
	if category != "" {
		conditions = append(conditions, `EXISTS (
            SELECT 1 FROM sale_items si JOIN products p ON p.id = si.product_id
            WHERE si.sale_id = s.id AND lower(p.category) = lower($3))`)
		args = append(args, strings.TrimSpace(category))
	}

	query := "SELECT s.* FROM sales s WHERE " + strings.Join(conditions, " AND ") + " ORDER BY s.created_at"
	rows, err := r.scanMaps(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	sales := make([]model.Sale, 0, len(rows))
	for _, row := range rows {
		s, err := gateway.NormalizeSale(row)
		if err != nil {
			r.logger.Warn("skipping unreadable sale row", zap.Error(err))
			continue
		}
		sales = append(sales, s)
	}
	return sales, nil
}

func (r *PGRepository) GetSaleLineItems(ctx context.Context, saleID string) ([]model.LineItem, error) {
	rows, err := r.scanMaps(ctx, `SELECT * FROM sale_items WHERE sale_id = $1 ORDER BY id`, saleID)
	if err != nil {
		return nil, err
	}
	items := make([]model.LineItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, gateway.NormalizeLineItem(row))
	}
	return items, nil
}

func (r *PGRepository) CreateSale(ctx context.Context, input *gateway.CreateSaleInput) (*model.Sale, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	sale := &model.Sale{
		ID:            uuid.New().String(),
		InvoiceNumber: input.InvoiceNumber,
		CreatedAt:     now,
		PaymentMethod: input.PaymentMethod,
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		Notes:         input.Notes,
		TotalAmount:   input.TotalAmount,
		OperatorID:    input.OperatorID,
		TerminalID:    input.TerminalID,
	}
	if sale.InvoiceNumber == "" {
		sale.InvoiceNumber = fmt.Sprintf("INV-%s-%s", now.Format("20060102"), strings.ToUpper(sale.ID[:8]))
	}
	count := len(input.Items)
	sale.ItemCount = &count

	decrement := `
        UPDATE products
        SET quantity_in_stock = quantity_in_stock - $1,
            quantity_on_shelf = LEAST(quantity_on_shelf, quantity_in_stock - $1),
            updated_at = NOW()
        WHERE id = $2 AND quantity_in_stock >= $1
    `
	for _, it := range input.Items {
		res, err := tx.ExecContext(ctx, decrement, it.Quantity, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, gateway.ErrInsufficient)
		}
	}

	insertSale := `
        INSERT INTO sales (
            id, invoice_number, created_at, item_count, payment_method,
            customer_name, customer_phone, notes, total_amount, operator_id, terminal_id, is_deleted
        )
        VALUES (
            :id, :invoice_number, :created_at, :item_count, :payment_method,
            :customer_name, :customer_phone, :notes, :total_amount, :operator_id, :terminal_id, :is_deleted
        )
    `
	if _, err := tx.NamedExecContext(ctx, insertSale, sale); err != nil {
		return nil, fmt.Errorf("failed to insert sale: %w", err)
	}

	insertItem := `
        INSERT INTO sale_items (id, sale_id, product_id, product_name, quantity, unit_price, subtotal, unit_cost)
        VALUES (:id, :sale_id, :product_id, :product_name, :quantity, :unit_price, :subtotal, :unit_cost)
    `
	for _, it := range input.Items {
		item := it.Clone()
		item.ID = uuid.New().String()
		item.SaleID = sale.ID
		if _, err := tx.NamedExecContext(ctx, insertItem, &item); err != nil {
			return nil, fmt.Errorf("failed to insert sale item: %w", err)
		}
		sale.Items = append(sale.Items, item)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return sale, nil
}

func (r *PGRepository) DeleteSale(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE sales SET is_deleted = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return gateway.ErrNotFound
	}
	return nil
}

func (r *PGRepository) GetSetting(ctx context.Context, key string) (*model.Setting, error) {
	var s model.Setting
	err := r.DB.GetContext(ctx, &s, `SELECT key, value, updated_at FROM settings WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGRepository) SaveSetting(ctx context.Context, key, value string) error {
	query := `
        INSERT INTO settings (key, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
    `
	_, err := r.DB.ExecContext(ctx, query, key, value)
	return err
}
