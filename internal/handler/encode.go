package handler

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/merchant-orders/internal/domain/order"
)

// encodeOrder writes o as an object. extra, when set, appends more fields
// before the object is closed.
func encodeOrder(e *jx.Encoder, o *order.Order, extra func(e *jx.Encoder)) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	e.FieldStart("customer_id")
	e.Int64(o.CustomerID)
	e.FieldStart("status")
	e.Str(o.Status)
	e.FieldStart("total")
	encodeMoney(e, o.Total)
	e.FieldStart("created_at")
	encodeTime(e, o.CreatedAt)
	e.FieldStart("updated_at")
	encodeTime(e, o.UpdatedAt)
	e.FieldStart("merchant_totals")
	e.ArrStart()
	for i := range o.PriceEntries {
		encodePriceEntry(e, &o.PriceEntries[i])
	}
	e.ArrEnd()
	if extra != nil {
		extra(e)
	}
	e.ObjEnd()
}

func encodePriceEntry(e *jx.Encoder, p *order.PriceEntry) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ID)
	e.FieldStart("order_id")
	e.Int64(p.OrderID)
	e.FieldStart("merchant_account_id")
	e.Int64(p.MerchantID)
	e.FieldStart("total_price")
	encodeMoney(e, p.TotalPrice)
	e.ObjEnd()
}

func encodeProductLine(e *jx.Encoder, p *order.ProductLine) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ProductID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("merchant_account_id")
	e.Int64(p.MerchantID)
	e.FieldStart("quantity")
	e.Int(p.Quantity)
	e.FieldStart("price")
	encodeMoney(e, p.Price)
	e.ObjEnd()
}

// encodeMoney writes d as a string with two decimal places.
func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Str(d.StringFixed(2))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	if t.IsZero() {
		e.Null()
		return
	}
	e.Str(t.UTC().Format(time.RFC3339))
}
