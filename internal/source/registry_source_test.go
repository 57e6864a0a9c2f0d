package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"kolrails/internal/campaign"
)

func newTestRegistry(t *testing.T, handler http.HandlerFunc) *RegistrySource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	reg, err := NewRegistrySource(RegistryConfig{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		SourceTag: "oracle-test",
	})
	if err != nil {
		t.Fatalf("create registry source: %v", err)
	}
	return reg
}

func TestRegistryCampaignIDs(t *testing.T) {
	var gotPath, gotKey, gotTag string
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotTag = r.Header.Get("source")
		// Mixed id forms: integer handle and hex string.
		_, _ = w.Write([]byte(`{"result": [42, "0x2b"]}`))
	})

	ids, err := reg.CampaignIDs(context.Background())
	if err != nil {
		t.Fatalf("fetch ids: %v", err)
	}

	if gotPath != "/get-all-campaigns" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotKey != "test-key" || gotTag != "oracle-test" {
		t.Fatalf("auth headers missing: key=%q tag=%q", gotKey, gotTag)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	if ids[0] != campaign.IDFromUint64(42) || ids[1] != campaign.IDFromUint64(43) {
		t.Fatalf("ids decoded wrong: %v", ids)
	}
}

func TestRegistryEmptyListIsValid(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result": []}`))
	})

	ids, err := reg.CampaignIDs(context.Background())
	if err != nil {
		t.Fatalf("empty list must not error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no ids, got %v", ids)
	}
}

func TestRegistryMissingResultIsUnavailable(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := reg.CampaignIDs(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("missing result field must be unavailable, got %v", err)
	}
}

func TestRegistryHTTPErrorIsUnavailable(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	_, err := reg.CampaignIDs(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRegistryMalformedJSONIsUnavailable(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result": [`))
	})

	_, err := reg.CampaignIDs(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRegistryNotifyStatus(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody map[string]interface{}
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	})

	id := campaign.IDFromUint64(7)
	if err := reg.NotifyStatus(context.Background(), id, campaign.StatusDiscarded); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if gotPath != "/update-campaign" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("unexpected content type %s", gotContentType)
	}
	if gotBody["campaign_id"] != id.Hex() {
		t.Fatalf("campaign_id = %v, want %s", gotBody["campaign_id"], id.Hex())
	}
	if gotBody["status"] != "discarded" {
		t.Fatalf("status = %v, want discarded", gotBody["status"])
	}
}

func TestRegistryNotifyStatusRejection(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	})

	err := reg.NotifyStatus(context.Background(), campaign.IDFromUint64(7), campaign.StatusDiscarded)
	if err == nil {
		t.Fatalf("expected error on rejected status update")
	}
}

func TestRegistryRequiresConfig(t *testing.T) {
	if _, err := NewRegistrySource(RegistryConfig{APIKey: "k"}); err == nil {
		t.Fatalf("expected error without base url")
	}
	if _, err := NewRegistrySource(RegistryConfig{BaseURL: "http://x"}); err == nil {
		t.Fatalf("expected error without api key")
	}
}
