package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Alexsuad/WeddingRSVP-sub000/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func boolPtr(v bool) *bool { return &v }

func setupAdminRouter(t *testing.T) (*gin.Engine, *store.BBoltStore) {
	t.Helper()

	s, err := store.NewBBoltStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	r := gin.New()
	RegisterHandlers(r, NewHandler(s))
	return r, s
}

func seedDecidedGuests(t *testing.T, s *store.BBoltStore) {
	t.Helper()
	err := s.Seed(map[string]store.GuestRecord{
		"GC-1": {
			FullName:       "Ana Suárez",
			InviteType:     store.InviteFull,
			Confirmed:      boolPtr(true),
			NumAdults:      2,
			NumChildren:    1,
			NeedsTransport: true,
		},
		"GC-2": {
			FullName:   "Radu Ionescu",
			InviteType: store.InviteCeremony,
			Confirmed:  boolPtr(false),
		},
		"GC-3": {
			FullName:   "Marta López",
			InviteType: store.InviteFull,
		},
	})
	if err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
}

func TestGetAdminGuests(t *testing.T) {
	r, s := setupAdminRouter(t)
	seedDecidedGuests(t, s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/guests", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var guests map[string]store.GuestRecord
	if err := json.NewDecoder(w.Body).Decode(&guests); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(guests) != 3 {
		t.Fatalf("expected 3 guests, got %d", len(guests))
	}
	if guests["GC-1"].FullName != "Ana Suárez" {
		t.Errorf("unexpected guest record %+v", guests["GC-1"])
	}
}

func TestGetAdminSummary(t *testing.T) {
	r, s := setupAdminRouter(t)
	seedDecidedGuests(t, s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/summary", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var summary Summary
	if err := json.NewDecoder(w.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	want := Summary{
		TotalInvites:   3,
		Pending:        1,
		Confirmed:      1,
		Declined:       1,
		TotalAdults:    2,
		TotalChildren:  1,
		NeedsTransport: 1,
	}
	if summary != want {
		t.Fatalf("summary mismatch:\n got %+v\nwant %+v", summary, want)
	}
}

func TestGetAdminSummary_Empty(t *testing.T) {
	r, _ := setupAdminRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/summary", nil)
	r.ServeHTTP(w, req)

	var summary Summary
	if err := json.NewDecoder(w.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if summary != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
}

func TestPutAdminGuests_ReplacesTable(t *testing.T) {
	r, s := setupAdminRouter(t)
	seedDecidedGuests(t, s)

	payload := map[string]store.GuestRecord{
		"GC-9": {FullName: "New Guest", InviteType: store.InviteFull, MaxAccomp: 1},
	}
	body, _ := json.Marshal(payload)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/admin/guests", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	guests, err := s.GetAllGuests(req.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(guests) != 1 {
		t.Fatalf("expected old guests dropped, got %d records", len(guests))
	}
	if guests["GC-9"].FullName != "New Guest" {
		t.Errorf("unexpected record %+v", guests["GC-9"])
	}
}

func TestPutAdminGuests_InvalidBody(t *testing.T) {
	r, _ := setupAdminRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/admin/guests", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
