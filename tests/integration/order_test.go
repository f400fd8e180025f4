//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// Seeded data: the API key belongs to user 1 (merchant 1), user 2 operates
// merchant 2, users 3 and 4 are customers without a merchant account.

func TestListOrders_NoAuth(t *testing.T) {
	resp := doGet(t, "/api/orders")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Code != http.StatusUnauthorized || body.Message != "unauthorized" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestListOrders_InvalidKey(t *testing.T) {
	resp := doGetWithAPIKey(t, "/api/orders", "wrong-key")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestListOrders_NoMerchantAccount(t *testing.T) {
	resp := doGetWithBearer(t, "/api/orders", 3)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Message != "merchant account required" {
		t.Fatalf("unexpected message: %q", body.Message)
	}
}

func TestListOrders_FirstPage(t *testing.T) {
	resp := doGetWithAPIKey(t, "/api/orders", testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeJSON[listOrdersResponse](t, resp)

	if body.Code != 200 || body.Message != "Success" {
		t.Fatalf("unexpected envelope: code=%d message=%q", body.Code, body.Message)
	}
	wantIDs := []int64{1, 2, 4, 5, 7, 8}
	if len(body.Data) != len(wantIDs) {
		t.Fatalf("expected %d orders, got %d", len(wantIDs), len(body.Data))
	}
	for i, o := range body.Data {
		if o.ID != wantIDs[i] {
			t.Errorf("order %d: got id %d, want %d", i, o.ID, wantIDs[i])
		}
		if len(o.MerchantTotals) != 1 || o.MerchantTotals[0].MerchantID != 1 {
			t.Errorf("order %d: expected only merchant 1 totals, got %+v", o.ID, o.MerchantTotals)
		}
	}

	first := body.Data[0]
	if first.Total != "19.40" {
		t.Errorf("order 1 total: got %q, want 19.40", first.Total)
	}
	if first.MerchantTotals[0].TotalPrice != "6.50" {
		t.Errorf("order 1 merchant total: got %q, want 6.50", first.MerchantTotals[0].TotalPrice)
	}

	if body.Pages == nil {
		t.Fatal("pages missing")
	}
	meta := body.Pages.Meta
	if meta.Total != 10 || meta.PerPage != 6 || meta.CurrentPage != 1 || meta.LastPage != 2 {
		t.Errorf("unexpected meta: %+v", meta)
	}
	if meta.From == nil || *meta.From != 1 || meta.To == nil || *meta.To != 6 {
		t.Errorf("unexpected from/to: %v/%v", meta.From, meta.To)
	}
	if body.Pages.Links.Prev != nil {
		t.Errorf("expected no prev link, got %q", *body.Pages.Links.Prev)
	}
	if body.Pages.Links.Next == nil {
		t.Error("expected next link")
	}
}

func TestListOrders_LastPage(t *testing.T) {
	resp := doGetWithAPIKey(t, "/api/orders?page=2", testAPIKey)
	defer resp.Body.Close()

	body := decodeJSON[listOrdersResponse](t, resp)
	wantIDs := []int64{9, 11, 12, 13}
	if len(body.Data) != len(wantIDs) {
		t.Fatalf("expected %d orders, got %d", len(wantIDs), len(body.Data))
	}
	for i, o := range body.Data {
		if o.ID != wantIDs[i] {
			t.Errorf("order %d: got id %d, want %d", i, o.ID, wantIDs[i])
		}
	}
	if body.Pages.Links.Next != nil {
		t.Errorf("expected no next link, got %q", *body.Pages.Links.Next)
	}
	if body.Pages.Meta.From == nil || *body.Pages.Meta.From != 7 {
		t.Errorf("unexpected from: %v", body.Pages.Meta.From)
	}
}

func TestListOrders_PageBeyondEnd(t *testing.T) {
	resp := doGetWithAPIKey(t, "/api/orders?page=9", testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeJSON[listOrdersResponse](t, resp)
	if len(body.Data) != 0 {
		t.Fatalf("expected empty page, got %d orders", len(body.Data))
	}
	if body.Pages.Meta.Total != 10 || body.Pages.Meta.CurrentPage != 9 {
		t.Errorf("unexpected meta: %+v", body.Pages.Meta)
	}
}

func TestListOrders_InvalidPage(t *testing.T) {
	resp := doGetWithAPIKey(t, "/api/orders?page=-3", testAPIKey)
	defer resp.Body.Close()

	body := decodeJSON[listOrdersResponse](t, resp)
	if body.Pages.Meta.CurrentPage != 1 {
		t.Errorf("expected page 1, got %d", body.Pages.Meta.CurrentPage)
	}
}

func TestListOrders_OtherMerchant(t *testing.T) {
	resp := doGetWithBearer(t, "/api/orders", 2)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeJSON[listOrdersResponse](t, resp)
	if body.Pages.Meta.Total != 7 {
		t.Errorf("expected 7 orders for merchant 2, got %d", body.Pages.Meta.Total)
	}
	for _, o := range body.Data {
		for _, mt := range o.MerchantTotals {
			if mt.MerchantID != 2 {
				t.Errorf("order %d leaks totals of merchant %d", o.ID, mt.MerchantID)
			}
		}
	}
}

func TestGetOrder(t *testing.T) {
	resp := doGetWithAPIKey(t, "/api/orders/4", testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeJSON[orderDetailResponse](t, resp)
	o := body.Data

	if o.ID != 4 || o.Total != "57.25" || o.CreatedAt != "2024-05-04T09:30:00Z" {
		t.Errorf("unexpected order: %+v", o.orderResponse)
	}
	if len(o.MerchantTotals) != 1 || o.MerchantTotals[0].TotalPrice != "31.45" {
		t.Errorf("unexpected merchant totals: %+v", o.MerchantTotals)
	}

	wantProducts := []int64{1, 2, 3, 7}
	if len(o.Products) != len(wantProducts) {
		t.Fatalf("expected %d products, got %d", len(wantProducts), len(o.Products))
	}
	for i, p := range o.Products {
		if p.ID != wantProducts[i] || p.MerchantID != 1 {
			t.Errorf("product %d: %+v", i, p)
		}
	}
	if o.Products[0].Quantity != 2 || o.Products[0].Price != "6.50" {
		t.Errorf("unexpected first product: %+v", o.Products[0])
	}
	if o.ProductsMeta.Total != 4 || o.ProductsMeta.LastPage != 1 {
		t.Errorf("unexpected products meta: %+v", o.ProductsMeta)
	}
}

func TestGetOrder_OtherMerchantView(t *testing.T) {
	resp := doGetWithBearer(t, "/api/orders/4", 2)
	defer resp.Body.Close()

	body := decodeJSON[orderDetailResponse](t, resp)
	if len(body.Data.Products) != 1 || body.Data.Products[0].ID != 4 {
		t.Fatalf("expected only product 4, got %+v", body.Data.Products)
	}
	if len(body.Data.MerchantTotals) != 1 || body.Data.MerchantTotals[0].TotalPrice != "25.80" {
		t.Errorf("unexpected merchant totals: %+v", body.Data.MerchantTotals)
	}
}

func TestGetOrder_NotOwned(t *testing.T) {
	// Order 2 only has merchant 1 lines. Without ownership enforcement it is
	// returned to merchant 2 with empty relations.
	resp := doGetWithBearer(t, "/api/orders/2", 2)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeJSON[orderDetailResponse](t, resp)
	if len(body.Data.Products) != 0 || len(body.Data.MerchantTotals) != 0 {
		t.Errorf("expected empty relations, got %+v", body.Data)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	for _, path := range []string{"/api/orders/999", "/api/orders/abc"} {
		t.Run(path, func(t *testing.T) {
			resp := doGetWithAPIKey(t, path, testAPIKey)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusNotFound {
				t.Fatalf("expected 404, got %d", resp.StatusCode)
			}
			body := decodeJSON[errorResponse](t, resp)
			if body.Code != http.StatusNotFound {
				t.Errorf("expected code 404, got %d", body.Code)
			}
		})
	}
}
