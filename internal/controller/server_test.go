package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/auth"
	"github.com/Freeeeeet/speaker_booking/internal/cache"
	"github.com/Freeeeeet/speaker_booking/internal/model"
	"github.com/Freeeeeet/speaker_booking/internal/ratelimit"
	"github.com/Freeeeeet/speaker_booking/internal/repository/repotest"
	"github.com/Freeeeeet/speaker_booking/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const adminPassword = "s3cret"

// tokenNotifier запоминает токен последней брони, как будто его прочитали из письма
type tokenNotifier struct {
	mu    sync.Mutex
	token string
}

func (n *tokenNotifier) remember(r *model.Reservation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.token = r.EditToken
	return nil
}

func (n *tokenNotifier) BookingCreated(_ context.Context, r *model.Reservation) error {
	return n.remember(r)
}

func (n *tokenNotifier) BookingUpdated(_ context.Context, r *model.Reservation) error {
	return n.remember(r)
}

func (n *tokenNotifier) BookingCancelled(context.Context, *model.Reservation) error {
	return nil
}

func (n *tokenNotifier) Token() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.token
}

type testServer struct {
	t        *testing.T
	server   *Server
	store    *repotest.Store
	notifier *tokenNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := repotest.NewStore()
	notifier := &tokenNotifier{}
	logger := zap.NewNop()

	availability := service.NewAvailabilityService(store, cache.NewMemoryCache(time.Minute), logger)
	bookings := service.NewBookingService(store, availability, notifier, time.Second, logger)
	admin := service.NewAdminService(store, availability, logger)
	gate := auth.NewGate(adminPassword, ratelimit.New(ratelimit.DefaultOptions()), logger)

	srv := NewServer(Options{CacheMaxAge: time.Minute}, bookings, admin, availability, gate, store, logger)
	require.NoError(t, srv.App().Build())

	return &testServer{t: t, server: srv, store: store, notifier: notifier}
}

func (ts *testServer) do(method, target string, body interface{}, password string) *httptest.ResponseRecorder {
	ts.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(data)
	}

	var req *http.Request
	if reader != nil {
		req = httptest.NewRequest(method, target, reader)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if password != "" {
		req.Header.Set("Authorization", "Bearer "+password)
	}

	rec := httptest.NewRecorder()
	ts.server.App().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func bookingBody(date, school string) map[string]interface{} {
	return map[string]interface{}{
		"date":            date,
		"timeSlot":        "10:00 AM",
		"schoolName":      school,
		"contactName":     "Jane Doe",
		"email":           "jane@example.edu",
		"phone":           "555-010-0100",
		"address":         "1 Main St",
		"city":            "Springfield",
		"numberOfTalks":   2,
		"includeWorkshop": true,
	}
}

func TestCreateBooking(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/bookings", bookingBody("2025-06-10", "Oak Hill"), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, true, body["emailSent"])

	booking := body["booking"].(map[string]interface{})
	assert.Equal(t, "2025-06-10", booking["date"])
	assert.Equal(t, "Oak Hill", booking["schoolName"])
	assert.Equal(t, false, booking["isBlocked"])
	assert.NotContains(t, rec.Body.String(), ts.notifier.Token())
	assert.NotContains(t, rec.Body.String(), "editToken")
}

func TestCreateBooking_Conflict(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/bookings", bookingBody("2025-06-10", "Oak Hill"), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodPost, "/bookings", bookingBody("2025-06-10", "Elm Park"), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "already booked by a school")
}

func TestCreateBooking_Validation(t *testing.T) {
	ts := newTestServer(t)

	body := bookingBody("2025-06-10", "")
	body["email"] = "nope"
	body["numberOfTalks"] = 9

	rec := ts.do(http.MethodPost, "/bookings", body, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	fields := decode(t, rec)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "schoolName")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "numberOfTalks")
	assert.Equal(t, 0, ts.store.Len())
}

func TestCreateBooking_MalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.server.App().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingLifecycleByToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/bookings", bookingBody("2025-06-10", "Oak Hill"), "")
	require.Equal(t, http.StatusCreated, rec.Code)
	token := ts.notifier.Token()
	require.Len(t, token, 64)

	rec = ts.do(http.MethodGet, "/bookings/"+token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	booking := decode(t, rec)["booking"].(map[string]interface{})
	assert.Equal(t, "jane@example.edu", booking["email"])

	rec = ts.do(http.MethodPut, "/bookings/"+token, map[string]interface{}{"date": "2025-06-11"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	booking = decode(t, rec)["booking"].(map[string]interface{})
	assert.Equal(t, "2025-06-11", booking["date"])
	assert.Equal(t, "Oak Hill", booking["schoolName"])

	rec = ts.do(http.MethodGet, "/bookings/available-dates?year=2025&month=6", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"2025-06-11"}, decode(t, rec)["bookedDates"])
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))

	rec = ts.do(http.MethodDelete, "/bookings/"+token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/bookings/"+token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(http.MethodDelete, "/bookings/"+token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateBooking_Errors(t *testing.T) {
	ts := newTestServer(t)

	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/bookings", bookingBody("2025-06-12", "Elm Park"), "").Code)
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/bookings", bookingBody("2025-06-10", "Oak Hill"), "").Code)
	token := ts.notifier.Token()

	rec := ts.do(http.MethodPut, "/bookings/"+token, map[string]interface{}{"editToken": "hijack"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPut, "/bookings/"+token, map[string]interface{}{"date": "2025-06-12"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPut, "/bookings/"+token, map[string]interface{}{"phone": "call me"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPut, "/bookings/unknown-token", map[string]interface{}{"city": "Shelbyville"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPut, "/bookings/"+token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "No changes to apply", out["message"])
	assert.NotContains(t, out, "emailSent")
	assert.Equal(t, "2025-06-10", out["booking"].(map[string]interface{})["date"])
}

// Тело без Content-Length (chunked) должно читаться так же, как обычное
func TestUpdateBooking_ChunkedBody(t *testing.T) {
	ts := newTestServer(t)
	httpSrv := httptest.NewServer(ts.server.App())
	defer httpSrv.Close()

	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/bookings", bookingBody("2025-06-12", "Elm Park"), "").Code)
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/bookings", bookingBody("2025-06-10", "Oak Hill"), "").Code)
	token := ts.notifier.Token()

	put := func(body string) (int, map[string]interface{}) {
		t.Helper()
		// io.MultiReader скрывает длину, и клиент шлёт тело chunked
		req, err := http.NewRequest(http.MethodPut, httpSrv.URL+"/bookings/"+token, io.MultiReader(strings.NewReader(body)))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpSrv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var out map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp.StatusCode, out
	}

	code, _ := put(`{"editToken":"hijack"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = put(`{"date":"2025-06-12"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, out := put(`{"date":"2025-06-11"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Booking updated successfully", out["message"])
	assert.Equal(t, true, out["emailSent"])

	rec := ts.do(http.MethodGet, "/bookings/"+token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-06-11", decode(t, rec)["booking"].(map[string]interface{})["date"])
}

func TestAvailableDates_ExcludeToken(t *testing.T) {
	ts := newTestServer(t)

	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/bookings", bookingBody("2025-06-10", "Oak Hill"), "").Code)
	token := ts.notifier.Token()

	rec := ts.do(http.MethodGet, "/bookings/available-dates?year=2025&month=6&excludeToken="+token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, decode(t, rec)["bookedDates"])
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-cache")

	rec = ts.do(http.MethodGet, "/bookings/available-dates?year=2025", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(http.MethodGet, "/bookings/available-dates?year=2025&month=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckDate(t *testing.T) {
	ts := newTestServer(t)

	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/bookings", bookingBody("2025-06-10", "Oak Hill"), "").Code)

	rec := ts.do(http.MethodGet, "/bookings/check-date?date=2025-06-10", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["isBooked"])
	assert.Equal(t, false, body["isBlocked"])
	assert.Equal(t, "2025-06-10", body["date"])

	parsed := body["parsedDate"].(map[string]interface{})
	assert.Equal(t, "2025-06-10T12:00:00Z", parsed["standardized"])

	rec = ts.do(http.MethodGet, "/bookings/check-date?date=2025-06-11", nil, "")
	assert.Equal(t, false, decode(t, rec)["isBooked"])

	rec = ts.do(http.MethodGet, "/bookings/check-date", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(http.MethodGet, "/bookings/check-date?date=tomorrow", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_Unauthorized(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/admin/bookings", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.EqualValues(t, 4, decode(t, rec)["remainingAttempts"])

	rec = ts.do(http.MethodGet, "/admin/bookings", nil, "wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.EqualValues(t, 3, decode(t, rec)["remainingAttempts"])
}

func TestAdmin_RateLimited(t *testing.T) {
	ts := newTestServer(t)

	var rec *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		rec = ts.do(http.MethodGet, "/admin/blocked-dates", nil, "wrong")
	}
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["remainingBlockTime"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Во время блокировки даже верный пароль не проверяется
	rec = ts.do(http.MethodGet, "/admin/blocked-dates", nil, adminPassword)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAdmin_BlockFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/admin/blocked-dates", map[string]interface{}{"date": "2025-07-04"}, adminPassword)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/admin/blocked-dates", map[string]interface{}{"date": "2025-07-04"}, adminPassword)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPost, "/bookings", bookingBody("2025-07-04", "Oak Hill"), "")
	require.Equal(t, http.StatusConflict, rec.Code)
	msg := decode(t, rec)["message"].(string)
	assert.Contains(t, msg, "unavailable")
	assert.NotContains(t, msg, "school")

	rec = ts.do(http.MethodGet, "/admin/blocked-dates", nil, adminPassword)
	require.Equal(t, http.StatusOK, rec.Code)
	blocked := decode(t, rec)["blockedDates"].([]interface{})
	require.Len(t, blocked, 1)
	assert.Equal(t, "2025-07-04", blocked[0].(map[string]interface{})["date"])

	rec = ts.do(http.MethodGet, "/bookings/check-date?date=2025-07-04", nil, "")
	assert.Equal(t, true, decode(t, rec)["isBlocked"])

	rec = ts.do(http.MethodDelete, "/admin/blocked-dates?date=2025-07-04", nil, adminPassword)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodDelete, "/admin/blocked-dates?date=2025-07-04", nil, adminPassword)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(http.MethodDelete, "/admin/blocked-dates", nil, adminPassword)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/bookings", bookingBody("2025-07-04", "Oak Hill"), "")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAdmin_ListBookingsHidesContacts(t *testing.T) {
	ts := newTestServer(t)

	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/bookings", bookingBody("2025-06-10", "Oak Hill"), "").Code)
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/admin/blocked-dates", map[string]interface{}{"date": "2025-06-11"}, adminPassword).Code)

	rec := ts.do(http.MethodGet, "/admin/bookings", nil, adminPassword)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode(t, rec)["bookings"].([]interface{})
	require.Len(t, list, 2)
	first := list[0].(map[string]interface{})
	second := list[1].(map[string]interface{})
	assert.Equal(t, "Oak Hill", first["schoolName"])
	assert.NotContains(t, first, "email")
	assert.NotContains(t, first, "phone")
	assert.Equal(t, true, second["isBlocked"])
	assert.Equal(t, "BLOCKED", second["timeSlot"])
	assert.NotContains(t, rec.Body.String(), ts.notifier.Token())
}

func TestCalendarImage(t *testing.T) {
	ts := newTestServer(t)

	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/bookings", bookingBody("2025-06-10", "Oak Hill"), "").Code)

	rec := ts.do(http.MethodGet, "/bookings/calendar.png?year=2025&month=6", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "image/png"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = ts.do(http.MethodGet, "/bookings/calendar.png?year=2025&month=13", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestStorageErrorIs500(t *testing.T) {
	ts := newTestServer(t)
	ts.store.FailWith(assert.AnError)

	rec := ts.do(http.MethodPost, "/bookings", bookingBody("2025-06-10", "Oak Hill"), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}
