//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestProbes(t *testing.T) {
	for _, tt := range []struct {
		path  string
		check string
	}{
		{path: "/livez", check: "goroutines"},
		{path: "/readyz", check: "postgres"},
	} {
		t.Run(tt.path, func(t *testing.T) {
			resp := doGet(t, tt.path)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}

			body := decodeJSON[healthResponse](t, resp)
			if body.Code != http.StatusOK || body.Message != "ok" {
				t.Fatalf("unexpected envelope: code=%d message=%q", body.Code, body.Message)
			}
			if body.Data.Status != "ok" {
				t.Fatalf("expected status ok, got %q", body.Data.Status)
			}
			if got := body.Data.Checks[tt.check]; got != "ok" {
				t.Errorf("check %s: got %q, want ok", tt.check, got)
			}
		})
	}
}

func TestProbes_NoAuthRequired(t *testing.T) {
	resp := doGetWithAPIKey(t, "/readyz", "wrong-key")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
