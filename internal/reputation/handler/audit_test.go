package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/trustweb/internal/reputation/handler"
	"github.com/jmerrifield20/trustweb/internal/trustledger"
	"go.uber.org/zap"
)

func setupAuditRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handler.NewAuditHandler(trustledger.New(), zap.NewNop())
	h.Register(r.Group("/api/v1"))
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestAuditOverview_200(t *testing.T) {
	w := get(setupAuditRouter(t), "/api/v1/ledger")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if int(resp["entries"].(float64)) != 1 {
		t.Errorf("expected 1 entry (genesis), got %v", resp["entries"])
	}
	if resp["height"] != float64(0) {
		t.Errorf("height: got %v, want 0", resp["height"])
	}
	if resp["root"] != trustledger.GenesisHash {
		t.Errorf("root: got %v", resp["root"])
	}
}

func TestAuditVerify_200(t *testing.T) {
	w := get(setupAuditRouter(t), "/api/v1/ledger/verify")
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || resp["valid"] != true {
		t.Errorf("expected valid chain, got %d %v", w.Code, resp)
	}
}

func TestAuditGetEntry(t *testing.T) {
	r := setupAuditRouter(t)
	tests := []struct {
		path   string
		status int
	}{
		{"/api/v1/ledger/entries/0", http.StatusOK},
		{"/api/v1/ledger/entries/999", http.StatusNotFound},
		{"/api/v1/ledger/entries/abc", http.StatusBadRequest},
		{"/api/v1/ledger/entries/-1", http.StatusBadRequest},
	}
	for _, tc := range tests {
		if w := get(r, tc.path); w.Code != tc.status {
			t.Errorf("%s: expected %d, got %d", tc.path, tc.status, w.Code)
		}
	}
}

func TestAuditListEntries(t *testing.T) {
	r := setupAuditRouter(t)

	w := get(r, "/api/v1/ledger/entries?offset=0&limit=10")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Entries []trustledger.Entry `json:"entries"`
		Count   int                 `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 || resp.Entries[0].Action != trustledger.ActionGenesis {
		t.Errorf("unexpected listing: %+v", resp)
	}

	w = get(r, "/api/v1/ledger/entries?offset=5")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 past the end, got %d", w.Code)
	}
	if w := get(r, "/api/v1/ledger/entries?limit=0"); w.Code != http.StatusBadRequest {
		t.Errorf("limit=0: expected 400, got %d", w.Code)
	}
}
