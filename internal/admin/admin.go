// Package admin implements the plain HTTP/JSON operator surface: a
// read-only view of the routing table and a liveness probe. It plays
// the same role the daemon's ConnectRPC server plays for session
// introspection, but speaks JSON over net/http instead of protobuf --
// there is no wire contract to keep in sync with a remote control
// plane here, so the extra machinery buys nothing (see DESIGN.md).
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ripd/ripd/internal/netorder"
	"github.com/ripd/ripd/internal/rib"
)

// RouteTable is the subset of *rib.Table the admin surface reads.
type RouteTable interface {
	Snapshot() []rib.Entry
}

// Server is the HTTP handler backing the admin surface.
type Server struct {
	table   RouteTable
	logger  *slog.Logger
	started time.Time
}

// New builds a Server; its Handler method returns the http.Handler to
// mount.
func New(table RouteTable, logger *slog.Logger) *Server {
	return &Server{
		table:   table,
		logger:  logger.With(slog.String("component", "admin")),
		started: time.Now(),
	}
}

// Handler returns the mux routing requests to this Server's endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /routes", s.handleRoutes)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return mux
}

// routeView is the wire shape of one rib.Entry, rendered in
// conventional dotted-quad form rather than the repository's internal
// storage convention.
type routeView struct {
	Destination string `json:"destination"`
	PrefixLen   int    `json:"prefix_len"`
	Nexthop     string `json:"nexthop"`
	IfIndex     int    `json:"if_index"`
	Metric      int    `json:"metric"`
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	s.logger.DebugContext(r.Context(), "routes requested")

	entries := s.table.Snapshot()
	views := make([]routeView, 0, len(entries))
	for _, e := range entries {
		views = append(views, routeView{
			Destination: netorder.StoredToDotted(e.Addr),
			PrefixLen:   e.Len,
			Nexthop:     netorder.StoredToDotted(e.Nexthop),
			IfIndex:     e.IfIndex,
			Metric:      e.Metric,
		})
	}

	writeJSON(w, http.StatusOK, views)
}

type healthResponse struct {
	Status string        `json:"status"`
	Uptime time.Duration `json:"uptime_seconds"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(s.started) / time.Second,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
