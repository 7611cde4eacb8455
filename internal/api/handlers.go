package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"cantine/internal/cache"
	"cantine/internal/metrics"
	"cantine/internal/models"
	"cantine/internal/service"
)

// ReserveRequest is the body for /api/reserve and /api/unreserve.
type ReserveRequest struct {
	Name    string `json:"name"`
	DateStr string `json:"dateStr"` // display form dd.mm.yyyy
}

// CheckoutRequest is the body for /api/checkout.
type CheckoutRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"` // ELEVE | PROF
	Beverage  bool   `json:"beverage"`
	Chocolate bool   `json:"chocolate"`
	DateISO   string `json:"dateIso"`
	Method    string `json:"method"` // CASH | CARD
}

// QtyRequest is the body for /api/add/{item}.
type QtyRequest struct {
	Qty     int    `json:"qty"`
	DateISO string `json:"dateIso"`
}

// CloseRequest is the body for /api/close.
type CloseRequest struct {
	DateISO string `json:"dateIso"`
}

// TotalsPayload is the totals block of a till response. Field names match
// the till page's script.
type TotalsPayload struct {
	Menus      int     `json:"menus"`
	Students   int     `json:"eleves"`
	Staff      int     `json:"profs"`
	Sandwiches int     `json:"sandwiches"`
	Beverages  int     `json:"beverages"`
	Chocolates int     `json:"chocolates"`
	Amount     float64 `json:"amount"`
}

// TillResponse is the response for /api/caisse, /api/checkout and
// /api/add/{item}.
type TillResponse struct {
	Date   string        `json:"date"`
	Closed bool          `json:"closed"`
	Names  []string      `json:"names"`
	Totals TotalsPayload `json:"totals"`
}

func totalsPayload(t models.Totals) TotalsPayload {
	return TotalsPayload{
		Menus:      t.Menus,
		Students:   t.Students,
		Staff:      t.Staff,
		Sandwiches: t.Sandwiches,
		Beverages:  t.Beverages,
		Chocolates: t.Chocolates,
		Amount:     t.Cash.InexactFloat64(),
	}
}

func tillResponse(st service.TillState) TillResponse {
	names := st.Names
	if names == nil {
		names = []string{}
	}
	return TillResponse{
		Date:   st.DateISO,
		Closed: st.Closed,
		Names:  names,
		Totals: totalsPayload(st.Totals),
	}
}

// handleInitial returns the registration board.
// GET /api/initial
func (s *HTTPServer) handleInitial(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("initial")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	if payload, ok := s.cache.Get(r.Context(), cache.BoardKey); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
		return
	}

	board, err := s.svc.HomeBoard(r.Context())
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(board); err != nil {
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}
	s.cache.Set(r.Context(), cache.BoardKey, buf.Bytes())

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleReserve registers a name for a date. The confirmation is plain
// text, shown verbatim by the kiosk.
// POST /api/reserve
func (s *HTTPServer) handleReserve(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reserve")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}
	var req ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "nom manquant", http.StatusBadRequest)
		return
	}

	msg, err := s.svc.Register(r.Context(), req.DateStr, req.Name)
	if err != nil {
		status, text := statusFor(err)
		http.Error(w, text, status)
		return
	}
	s.cache.Invalidate(r.Context(), cache.BoardKey)
	writePlain(w, msg)
}

// handleUnreserve removes a registration.
// POST /api/unreserve
func (s *HTTPServer) handleUnreserve(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("unreserve")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}
	var req ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	msg, err := s.svc.Unregister(r.Context(), req.DateStr, req.Name)
	if err != nil {
		status, text := statusFor(err)
		http.Error(w, text, status)
		return
	}
	s.cache.Invalidate(r.Context(), cache.BoardKey)
	writePlain(w, msg)
}

// handleTill returns the cashier view for a date.
// GET /api/caisse?date=yyyy-mm-dd
func (s *HTTPServer) handleTill(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("caisse")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}
	st, err := s.svc.TillBoard(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, tillResponse(st))
}

// handleCheckout records a meal sale.
// POST /api/checkout
func (s *HTTPServer) handleCheckout(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("checkout")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	st, err := s.svc.Checkout(r.Context(), service.CheckoutRequest{
		DateISO:   req.DateISO,
		Name:      req.Name,
		Person:    req.Type,
		Method:    req.Method,
		Beverage:  req.Beverage,
		Chocolate: req.Chocolate,
	})
	if err != nil {
		status, text := statusFor(err)
		http.Error(w, text, status)
		return
	}
	writeJSON(w, http.StatusOK, tillResponse(st))
}

// handleAddItem records standalone add-on sales.
// POST /api/add/{sandwich|beverage|chocolate}
func (s *HTTPServer) handleAddItem(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("add_item")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}
	item := strings.TrimPrefix(r.URL.Path, "/api/add/")
	var req QtyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	st, err := s.svc.AddItem(r.Context(), item, req.DateISO, req.Qty)
	if err != nil {
		status, text := statusFor(err)
		http.Error(w, text, status)
		return
	}
	writeJSON(w, http.StatusOK, tillResponse(st))
}

// handleClose seals the date and triggers the accounting summary.
// POST /api/close
func (s *HTTPServer) handleClose(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("close")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}
	var req CloseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if _, err := s.svc.CloseDay(r.Context(), req.DateISO); err != nil {
		status, text := statusFor(err)
		http.Error(w, text, status)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleImport loads the calendar and seed reservations from CSV files.
// POST /admin/import (multipart: params, resas)
func (s *HTTPServer) handleImport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_import")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	counts := map[string]int{}
	if f, _, err := r.FormFile("params"); err == nil {
		defer f.Close()
		n, err := s.svc.ImportSchedule(r.Context(), f)
		if err != nil {
			status, msg := statusFor(err)
			writeError(w, status, msg)
			return
		}
		counts["params"] = n
	}
	if f, _, err := r.FormFile("resas"); err == nil {
		defer f.Close()
		n, err := s.svc.ImportReservations(r.Context(), f)
		if err != nil {
			status, msg := statusFor(err)
			writeError(w, status, msg)
			return
		}
		counts["resas"] = n
	}

	s.cache.Invalidate(r.Context(), cache.BoardKey)
	writeJSON(w, http.StatusOK, counts)
}

func writePlain(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(msg))
}
