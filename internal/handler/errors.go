package handler

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-pharmacy/internal/gateway"
	"github.com/fekuna/omnipos-pharmacy/internal/product"
	"github.com/fekuna/omnipos-pharmacy/internal/report"
	"github.com/fekuna/omnipos-pharmacy/internal/sale"
	"github.com/fekuna/omnipos-pharmacy/internal/setting"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var invalidArgument = []error{
	product.ErrInvalidInput,
	sale.ErrNoItems,
	sale.ErrInvalidQuantity,
	sale.ErrInvalidPayment,
	sale.ErrUnknownProduct,
	setting.ErrEmptyKey,
	report.ErrInvalidRange,
	report.ErrUnknownKind,
}

var failedPrecondition = []error{
	product.ErrShelfExceedsStock,
	gateway.ErrInsufficient,
	sale.ErrPhoneRequired,
	sale.ErrInactiveProduct,
}

func codeFor(err error) codes.Code {
	switch {
	case errors.Is(err, gateway.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, product.ErrBusy):
		return codes.Aborted
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	}
	for _, target := range invalidArgument {
		if errors.Is(err, target) {
			return codes.InvalidArgument
		}
	}
	for _, target := range failedPrecondition {
		if errors.Is(err, target) {
			return codes.FailedPrecondition
		}
	}
	return codes.Internal
}

// toStatus maps a use case error to a gRPC status. Internal errors are
// logged and their detail hidden from the caller.
func (h *PharmacyHandler) toStatus(op string, err error) error {
	code := codeFor(err)
	if code == codes.Internal {
		h.logger.Error("failed to "+op, zap.Error(err))
		return status.Error(codes.Internal, "failed to "+op)
	}
	return status.Error(code, err.Error())
}
