package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/merchant-orders/internal/domain/auth"
	"github.com/xenking/merchant-orders/internal/domain/order"
	"github.com/xenking/merchant-orders/internal/domain/pagination"
	"github.com/xenking/merchant-orders/internal/envelope"
)

// ListOrders handles GET /api/orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	merchantID, err := auth.MerchantID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.orders.ListOrders(r.Context(), order.ListQuery{
		MerchantID: merchantID,
		Page:       pagination.NewRequest(pagination.ParsePage(r.URL.Query().Get("page")), h.pageSize),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	envelope.Write(w, http.StatusOK, envelope.MessageSuccess, &envelope.Resource{
		Data: func(e *jx.Encoder) {
			e.ArrStart()
			for i := range page.Orders {
				encodeOrder(e, &page.Orders[i], nil)
			}
			e.ArrEnd()
		},
		Pages: envelope.NewPages(h.selfURL(r), page.Meta),
	})
}

// GetOrder handles GET /api/orders/{orderId}. The page query parameter
// selects the page of product lines.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	merchantID, err := auth.MerchantID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderId"), 10, 64)
	if err != nil || orderID <= 0 {
		writeError(w, r, order.ErrNotFound)
		return
	}

	detail, err := h.orders.GetOrderDetail(r.Context(), order.DetailQuery{
		OrderID:    orderID,
		MerchantID: merchantID,
		Products:   pagination.NewRequest(pagination.ParsePage(r.URL.Query().Get("page")), h.productPageSize),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	envelope.Write(w, http.StatusOK, envelope.MessageSuccess, &envelope.Resource{
		Data: func(e *jx.Encoder) {
			encodeOrder(e, &detail.Order, func(e *jx.Encoder) {
				e.FieldStart("products")
				e.ArrStart()
				for i := range detail.Products {
					encodeProductLine(e, &detail.Products[i])
				}
				e.ArrEnd()
				e.FieldStart("products_meta")
				envelope.EncodeMeta(e, detail.ProductsMeta, "")
			})
		},
	})
}
