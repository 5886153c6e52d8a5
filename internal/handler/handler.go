package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-pharmacy/internal/auth"
	"github.com/fekuna/omnipos-pharmacy/internal/logger"
	"github.com/fekuna/omnipos-pharmacy/internal/product"
	productdto "github.com/fekuna/omnipos-pharmacy/internal/product/dto"
	"github.com/fekuna/omnipos-pharmacy/internal/report"
	"github.com/fekuna/omnipos-pharmacy/internal/sale"
	saledto "github.com/fekuna/omnipos-pharmacy/internal/sale/dto"
	"github.com/fekuna/omnipos-pharmacy/internal/setting"
	"github.com/fekuna/omnipos-pharmacy/internal/state"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ PharmacyServiceServer = (*PharmacyHandler)(nil)

type PharmacyHandler struct {
	reports  *report.Engine
	products product.UseCase
	sales    sale.UseCase
	settings setting.UseCase
	store    *state.Store
	logger   logger.ZapLogger
}

func NewPharmacyHandler(
	reports *report.Engine,
	products product.UseCase,
	sales sale.UseCase,
	settings setting.UseCase,
	store *state.Store,
	log logger.ZapLogger,
) *PharmacyHandler {
	return &PharmacyHandler{
		reports:  reports,
		products: products,
		sales:    sales,
		settings: settings,
		store:    store,
		logger:   log,
	}
}

func (h *PharmacyHandler) GenerateReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	r := report.Request{
		Kind:     report.Kind(strings.ToLower(f.str("kind"))),
		Category: f.str("category"),
	}
	r.StartDate, _ = f.time("start_date")
	r.EndDate, _ = f.time("end_date")
	r.AsOf, _ = f.time("as_of")
	r.Days, _ = f.int("days")
	if f.err != nil {
		return nil, status.Error(codes.InvalidArgument, f.err.Error())
	}

	rep, err := h.reports.Generate(ctx, r)
	if err != nil {
		return nil, h.toStatus("generate report", err)
	}
	return h.respond(rep)
}

func (h *PharmacyHandler) ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	filters := &productdto.ProductFilters{
		SearchQuery: f.str("search"),
		Category:    f.str("category"),
		Status:      f.str("status"),
		ActiveOnly:  f.boolean("active_only"),
		SortBy:      f.str("sort_by"),
		SortOrder:   f.str("sort_order"),
	}
	filters.ExpiringWithinDays, _ = f.int("expiring_within_days")
	filters.Page, _ = f.int("page")
	filters.PageSize, _ = f.int("page_size")
	if f.err != nil {
		return nil, status.Error(codes.InvalidArgument, f.err.Error())
	}
	return h.respond(h.products.ListProducts(ctx, filters))
}

func (h *PharmacyHandler) GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	id := f.str("id")
	if f.err != nil || id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	p, err := h.products.GetProduct(ctx, id)
	if err != nil {
		return nil, h.toStatus("get product", err)
	}
	return h.respond(map[string]any{"product": p})
}

func (h *PharmacyHandler) UpdateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	input := &productdto.UpdateProductInput{
		ID:              f.str("id"),
		Name:            strPtr(f, "name"),
		Category:        strPtr(f, "category"),
		QuantityInStock: intPtr(f, "quantity_in_stock"),
		QuantityOnShelf: intPtr(f, "quantity_on_shelf"),
		CostPrice:       floatPtr(f, "cost_price"),
		TotalBulkCost:   floatPtr(f, "total_bulk_cost"),
		QuantityBought:  intPtr(f, "quantity_purchased"),
		SellingPrice:    floatPtr(f, "selling_price"),
		ReorderLevel:    intPtr(f, "reorder_level"),
		OperatorID:      auth.GetOperatorID(ctx),
	}
	if f.has("is_active") && !f.isNull("is_active") {
		active := f.boolean("is_active")
		input.IsActive = &active
	}
	// An explicit null expiry clears it; absence keeps it.
	if f.isNull("expiry_date") {
		input.ClearExpiry = true
	} else if t, ok := f.time("expiry_date"); ok {
		input.ExpiryDate = &t
	}
	if f.err != nil {
		return nil, status.Error(codes.InvalidArgument, f.err.Error())
	}
	if input.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	p, err := h.products.UpdateProduct(ctx, input)
	if err != nil {
		return nil, h.toStatus("update product", err)
	}
	return h.respond(map[string]any{"product": p})
}

func (h *PharmacyHandler) AdjustStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	input := &productdto.AdjustStockInput{
		ProductID:  f.str("product_id"),
		Reason:     f.str("reason"),
		OperatorID: auth.GetOperatorID(ctx),
	}
	input.QuantityChange, _ = f.int("quantity_change")
	input.ShelfChange, _ = f.int("shelf_change")
	if f.err != nil {
		return nil, status.Error(codes.InvalidArgument, f.err.Error())
	}
	if input.ProductID == "" {
		return nil, status.Error(codes.InvalidArgument, "product_id is required")
	}

	p, err := h.products.AdjustStock(ctx, input)
	if err != nil {
		return nil, h.toStatus("adjust stock", err)
	}
	return h.respond(map[string]any{"product": p})
}

func (h *PharmacyHandler) CompleteSale(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	input := &saledto.CompleteSaleInput{
		PaymentMethod: f.str("payment_method"),
		CustomerName:  f.str("customer_name"),
		CustomerPhone: f.str("customer_phone"),
		Notes:         f.str("notes"),
		OperatorID:    auth.GetOperatorID(ctx),
		TerminalID:    auth.GetTerminalID(ctx),
	}
	for i, v := range f.list("items") {
		item := newFields(v.GetStructValue())
		in := saledto.ItemInput{ProductID: item.str("product_id"), UnitPrice: floatPtr(item, "unit_price")}
		in.Quantity, _ = item.int("quantity")
		if item.err != nil {
			return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("items[%d]: %v", i, item.err))
		}
		input.Items = append(input.Items, in)
	}
	if f.err != nil {
		return nil, status.Error(codes.InvalidArgument, f.err.Error())
	}

	receipt, err := h.sales.CompleteSale(ctx, input)
	if err != nil {
		return nil, h.toStatus("complete sale", err)
	}
	return h.respond(receipt)
}

func (h *PharmacyHandler) DeleteSale(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	id := f.str("id")
	if f.err != nil || id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	if err := h.sales.DeleteSale(ctx, id); err != nil {
		return nil, h.toStatus("delete sale", err)
	}
	return structpb.NewStruct(map[string]any{"deleted": true})
}

func (h *PharmacyHandler) Undo(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return h.historyResponse(h.store.Undo())
}

func (h *PharmacyHandler) Redo(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return h.historyResponse(h.store.Redo())
}

func (h *PharmacyHandler) historyResponse(applied bool) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"applied":  applied,
		"can_undo": h.store.CanUndo(),
		"can_redo": h.store.CanRedo(),
	})
}

func (h *PharmacyHandler) GetSetting(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	key := f.str("key")
	if f.err != nil {
		return nil, status.Error(codes.InvalidArgument, f.err.Error())
	}
	value, found, err := h.settings.GetSetting(ctx, key)
	if err != nil {
		return nil, h.toStatus("get setting", err)
	}
	return structpb.NewStruct(map[string]any{"key": key, "value": value, "found": found})
}

func (h *PharmacyHandler) SaveSetting(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	key, value := f.str("key"), f.str("value")
	if f.err != nil {
		return nil, status.Error(codes.InvalidArgument, f.err.Error())
	}
	if err := h.settings.SaveSetting(ctx, key, value); err != nil {
		return nil, h.toStatus("save setting", err)
	}
	return structpb.NewStruct(map[string]any{"key": key, "value": value})
}

func (h *PharmacyHandler) respond(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}
