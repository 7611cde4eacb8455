package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cantine/internal/dates"
	"cantine/internal/models"
	"cantine/internal/service"
	"cantine/internal/storage/sqlite"
)

// newTestServer runs the full HTTP surface over an in-memory sqlite store
// with today's date open for serving.
func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	todayISO := dates.TodayISO()
	require.NoError(t, db.UpsertScheduleEntry(context.Background(), models.ScheduleEntry{
		DateISO: todayISO,
		Weekday: dates.WeekdayLabel(todayISO),
		Menu:    "Lasagnes",
		Open:    true,
	}))

	logger := zerolog.New(io.Discard)
	svc := service.New(db, nil, &logger)
	srv := httptest.NewServer(NewHTTPServer(svc, nil, &logger).Handler())
	t.Cleanup(srv.Close)
	return srv, todayISO
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestReserveEndpoint(t *testing.T) {
	srv, todayISO := newTestServer(t)
	display := dates.ToDisplay(todayISO)

	t.Run("confirmation is plain text", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/reserve", ReserveRequest{Name: "John Smith", DateStr: display})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
		assert.Equal(t, "Merci John Smith, réservation confirmée pour le "+display+" !", readBody(t, resp))
	})

	t.Run("missing name", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/reserve", ReserveRequest{DateStr: display})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("closed date carries the operator message", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/reserve", ReserveRequest{Name: "Jane Doe", DateStr: "01.01.2030"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "fermé")
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/reserve")
		require.NoError(t, err)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestUnreserveEndpoint(t *testing.T) {
	srv, todayISO := newTestServer(t)
	display := dates.ToDisplay(todayISO)

	resp := postJSON(t, srv.URL+"/api/reserve", ReserveRequest{Name: "John Smith", DateStr: display})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/unreserve", ReserveRequest{Name: "john SMITH", DateStr: display})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Vous êtes désinscrit pour le "+display+".", readBody(t, resp))

	resp = postJSON(t, srv.URL+"/api/unreserve", ReserveRequest{Name: "john SMITH", DateStr: display})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestInitialEndpoint(t *testing.T) {
	srv, todayISO := newTestServer(t)
	display := dates.ToDisplay(todayISO)

	resp := postJSON(t, srv.URL+"/api/reserve", ReserveRequest{Name: "John Smith", DateStr: display})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/initial")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var board service.Board
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&board))
	resp.Body.Close()
	assert.Len(t, board.Days, 4)
	assert.Contains(t, board.Reservations[display], "John Smith")
}

func TestTillEndpoints(t *testing.T) {
	srv, todayISO := newTestServer(t)

	t.Run("checkout then till view", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/checkout", CheckoutRequest{
			Name:     "John Smith",
			Type:     "ELEVE",
			Method:   "CASH",
			Beverage: true,
			DateISO:  todayISO,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var till TillResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&till))
		resp.Body.Close()
		assert.Equal(t, 1, till.Totals.Menus)
		assert.InDelta(t, 10.0, till.Totals.Amount, 0.001)
	})

	t.Run("add-on rows", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/add/sandwich", QtyRequest{Qty: 2, DateISO: todayISO})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var till TillResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&till))
		resp.Body.Close()
		assert.Equal(t, 2, till.Totals.Sandwiches)
		assert.InDelta(t, 22.0, till.Totals.Amount, 0.001)
	})

	t.Run("unknown item", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/add/glace", QtyRequest{Qty: 1, DateISO: todayISO})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("close then the till is sealed", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/close", CloseRequest{DateISO: todayISO})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp, err := http.Get(srv.URL + "/api/caisse?date=" + todayISO)
		require.NoError(t, err)
		var till TillResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&till))
		resp.Body.Close()
		assert.True(t, till.Closed)
		assert.NotNil(t, till.Names)

		resp = postJSON(t, srv.URL+"/api/checkout", CheckoutRequest{Type: "PROF", Method: "CASH", DateISO: todayISO})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Caisse fermée")
	})
}

func TestImportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("params", "params.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("date_iso;jour;menu;open\n2030-01-07;Lundi;Gratin;1\n"))
	require.NoError(t, err)
	fw, err = mw.CreateFormFile("resas", "resas.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("date_iso;name\n2030-01-07;John Smith\n2030-01-07;Jane Doe\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/admin/import", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var counts map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&counts))
	resp.Body.Close()
	assert.Equal(t, 1, counts["params"])
	assert.Equal(t, 2, counts["resas"])

	// The imported queue shows up on the till view FIFO.
	resp, err = http.Get(srv.URL + "/api/caisse?date=2030-01-07")
	require.NoError(t, err)
	var till TillResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&till))
	resp.Body.Close()
	assert.Equal(t, []string{"John Smith", "Jane Doe"}, till.Names)
}

func TestInvalidJSONBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/checkout", "application/json", strings.NewReader("{broken"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
