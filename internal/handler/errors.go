package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/merchant-orders/internal/domain/auth"
	"github.com/xenking/merchant-orders/internal/domain/order"
	"github.com/xenking/merchant-orders/internal/envelope"
)

// writeError maps err to a status code and writes an error envelope.
// Unknown errors are logged and reported as 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		envelope.Error(w, http.StatusUnauthorized, auth.ErrUnauthorized.Error())
	case errors.Is(err, auth.ErrNoMerchantAccount):
		envelope.Error(w, http.StatusForbidden, auth.ErrNoMerchantAccount.Error())
	case errors.Is(err, order.ErrNotFound):
		envelope.Error(w, http.StatusNotFound, order.ErrNotFound.Error())
	default:
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		envelope.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
