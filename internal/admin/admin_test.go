package admin_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ripd/ripd/internal/admin"
	"github.com/ripd/ripd/internal/rib"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleRoutesRendersSnapshot(t *testing.T) {
	t.Parallel()

	table := rib.NewTable()
	table.Upsert(rib.Entry{Addr: 0x0000000A, Len: 8, IfIndex: 1, Nexthop: 0, Metric: 1})
	table.Upsert(rib.Entry{Addr: 0x000010AC, Len: 16, IfIndex: 1, Nexthop: 0x0201000A, Metric: 4})

	srv := admin.New(table, discardLogger())
	req := httptest.NewRequest(http.MethodGet, "/routes", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []struct {
		Destination string `json:"destination"`
		PrefixLen   int    `json:"prefix_len"`
		Nexthop     string `json:"nexthop"`
		IfIndex     int    `json:"if_index"`
		Metric      int    `json:"metric"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d routes, want 2", len(got))
	}

	found := false
	for _, r := range got {
		if r.Destination == "172.16.0.0" && r.PrefixLen == 16 && r.Nexthop == "10.0.1.2" && r.Metric == 4 {
			found = true
		}
	}
	if !found {
		t.Errorf("did not find expected 172.16.0.0/16 entry in %+v", got)
	}
}

func TestHandleHealthz(t *testing.T) {
	t.Parallel()

	table := rib.NewTable()
	srv := admin.New(table, discardLogger())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got.Status != "ok" {
		t.Errorf("status field = %q, want %q", got.Status, "ok")
	}
}

func TestHandleRoutesEmptyTable(t *testing.T) {
	t.Parallel()

	table := rib.NewTable()
	srv := admin.New(table, discardLogger())
	req := httptest.NewRequest(http.MethodGet, "/routes", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var got []any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d routes, want 0", len(got))
	}
}
