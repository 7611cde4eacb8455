// Package api exposes the cantine service over HTTP for the kiosk and
// till front-ends. The JSON shapes match what those pages already speak.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"cantine/internal/cache"
	"cantine/internal/service"
)

// HTTPServer binds the service to the HTTP surface.
type HTTPServer struct {
	svc    *service.Service
	cache  *cache.BoardCache
	logger *zerolog.Logger
}

// NewHTTPServer wires the handlers. boardCache may be nil.
func NewHTTPServer(svc *service.Service, boardCache *cache.BoardCache, logger *zerolog.Logger) *HTTPServer {
	return &HTTPServer{svc: svc, cache: boardCache, logger: logger}
}

// Handler returns the route table.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/initial", s.handleInitial)
	mux.HandleFunc("/api/reserve", s.handleReserve)
	mux.HandleFunc("/api/unreserve", s.handleUnreserve)
	mux.HandleFunc("/api/caisse", s.handleTill)
	mux.HandleFunc("/api/checkout", s.handleCheckout)
	mux.HandleFunc("/api/add/", s.handleAddItem)
	mux.HandleFunc("/api/close", s.handleClose)
	mux.HandleFunc("/admin/import", s.handleImport)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps a service failure to an HTTP status. Storage outages are
// the only 5xx; every business rejection is a 400-class answer carrying
// the operator-facing message.
func statusFor(err error) (int, string) {
	if de, ok := service.AsDomain(err); ok {
		switch de.Kind {
		case service.KindStorage:
			return http.StatusServiceUnavailable, de.Message
		case service.KindNotFound:
			return http.StatusBadRequest, de.Message
		default:
			return http.StatusBadRequest, de.Message
		}
	}
	return http.StatusInternalServerError, "erreur interne"
}
