package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	feedbackRepo "autoshop/database/repository/feedback"
	ledgerRepo "autoshop/database/repository/ledger"
	scheduleRepo "autoshop/database/repository/schedule"
	"autoshop/handlers"
	"autoshop/middleware"
	"autoshop/models"
	"autoshop/services/booking"
	"autoshop/services/faultcode"
	"autoshop/services/intelligence"
	"autoshop/services/notification"
	"autoshop/services/session"
	"autoshop/utils"
)

const (
	shopUser     = "manager"
	shopPassword = "correct horse"
	slotLabel    = "2025-06-10 (Tuesday) 9:00 - 10:00"
)

type cannedCompleter struct{ reply string }

func (c cannedCompleter) Complete(context.Context, []models.ChatMessage) (string, error) {
	return c.reply, nil
}

func newTestRouter(t *testing.T, reply string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	schedulePath := filepath.Join(dir, "schedule.csv")
	require.NoError(t, os.WriteFile(schedulePath, []byte("Date,Day,Time Slot,Status\n2025-06-10,Tuesday,9:00 - 10:00,Available\n"), 0o644))

	logger := zap.NewNop()
	notifier, err := notification.NewDefaultNotificationService(notification.NewConsoleMailer(logger), logger)
	require.NoError(t, err)
	deps := booking.Deps{
		Ledger:    ledgerRepo.NewCSVLedgerRepo(filepath.Join(dir, "bookings.csv")),
		Schedule:  scheduleRepo.NewFileScheduleRepo(schedulePath),
		Feedback:  feedbackRepo.NewCSVFeedbackRepo(filepath.Join(dir, "feedback.csv")),
		Estimator: booking.FixedEstimator(2.0),
		Notifier:  notifier,
		LaborRate: 100,
		Logger:    logger,
	}
	bookingSvc, err := booking.NewBookingService(deps)
	require.NoError(t, err)
	reviewSvc, err := booking.NewReviewService(deps)
	require.NoError(t, err)

	diag, err := intelligence.NewDiagnostician(cannedCompleter{reply: reply}, time.Second, logger)
	require.NoError(t, err)
	codes := faultcode.NewReference([]string{"P0171 System Too Lean (Bank 1)\n"})
	sessionSvc, err := session.NewService(session.NewMemoryStore(time.Hour), bookingSvc, diag, codes, logger)
	require.NoError(t, err)

	codec, err := middleware.NewSessionCodec("", "", false)
	require.NoError(t, err)
	require.NoError(t, utils.SetJWTSecret("routes-test-secret-123"))
	hash, err := bcrypt.GenerateFromPassword([]byte(shopPassword), bcrypt.MinCost)
	require.NoError(t, err)

	sh := handlers.NewSessionHandler(sessionSvc, codec)
	bh := handlers.NewBookingHandler(bookingSvc)
	shop := handlers.NewShopHandler(reviewSvc, shopUser, string(hash))
	hb := &handlers.HandlerBundle{
		SessionCodec:    codec,
		StartSession:    sh.StartSession,
		GetSession:      sh.GetSession,
		EndSession:      sh.EndSession,
		SubmitIdentity:  sh.SubmitIdentity,
		SubmitVehicle:   sh.SubmitVehicle,
		SendMessage:     sh.SendMessage,
		RequestSlots:    sh.RequestSlots,
		SelectSlot:      sh.SelectSlot,
		CancelSelection: sh.CancelSelection,
		ConfirmSlot:     sh.ConfirmSlot,
		NewBooking:      sh.NewBooking,
		AvailableSlots:  bh.AvailableSlots,
		SubmitFeedback:  bh.SubmitFeedback,
		LookupFaultCode: handlers.NewFaultCodeHandler(codes).Lookup,
		ShopLogin:       shop.Login,
		ListBookings:    shop.ListBookings,
		PendingBookings: shop.PendingBookings,
		AcceptBooking:   shop.AcceptBooking,
		DenyBooking:     shop.DenyBooking,
		Calendar:        shop.Calendar,
		ListFeedback:    bh.ListFeedback,
		Health:          handlers.HealthHandler(nil),
	}
	r := gin.New()
	r.Use(utils.ErrorHandler())
	RegisterRoutes(r, hb, nil)
	return r
}

type client struct {
	t      *testing.T
	r      *gin.Engine
	header map[string]string
}

func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func state(body map[string]any) string {
	sess, _ := body["session"].(map[string]any)
	s, _ := sess["state"].(string)
	return s
}

func TestHealth(t *testing.T) {
	c := &client{t: t, r: newTestRouter(t, "ok")}
	code, body := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestCustomerBookingAndShopReview(t *testing.T) {
	r := newTestRouter(t, "Sounds like worn pads. You should schedule a repair.")
	customer := &client{t: t, r: r, header: map[string]string{}}

	code, body := customer.do(http.MethodPost, "/api/session", nil)
	require.Equal(t, http.StatusCreated, code)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	customer.header[utils.SessionHeader] = token

	code, body = customer.do(http.MethodPost, "/api/session/identity", gin.H{"name": "Alice", "email": "alice@example.com"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "collecting_vehicle_info", state(body))

	code, body = customer.do(http.MethodPost, "/api/session/vehicle", gin.H{
		"year": "2015", "make": "Honda", "model": "Civic", "issue": "grinding brakes", "faultCode": "P0171",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "selecting_slot", state(body), "the reply recommends a shop repair")
	assert.NotEmpty(t, body["slots"])

	code, body = customer.do(http.MethodPost, "/api/session/slots/select", gin.H{"label": slotLabel})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "confirming", state(body))

	code, body = customer.do(http.MethodPost, "/api/session/confirm", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "booked", state(body))
	last := body["session"].(map[string]any)["lastBooking"].(map[string]any)
	assert.Equal(t, "$200.00", last["quoteText"])

	code, _ = customer.do(http.MethodPost, "/api/session/confirm", nil)
	assert.Equal(t, http.StatusConflict, code, "a booked session cannot confirm again")

	shop := &client{t: t, r: r, header: map[string]string{}}
	code, _ = shop.do(http.MethodGet, "/api/shop/bookings", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = shop.do(http.MethodPost, "/api/shop/login", gin.H{"username": shopUser, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = shop.do(http.MethodPost, "/api/shop/login", gin.H{"username": shopUser, "password": shopPassword})
	require.Equal(t, http.StatusOK, code)
	shop.header["Authorization"] = "Bearer " + body["token"].(string)

	code, body = shop.do(http.MethodGet, "/api/shop/bookings/pending", nil)
	require.Equal(t, http.StatusOK, code)
	pending := body["bookings"].([]any)
	require.Len(t, pending, 1)
	row := pending[0].(map[string]any)
	assert.Equal(t, "Alice", row["name"])
	assert.Equal(t, "$200.00", row["quoteText"])

	code, body = shop.do(http.MethodPost, "/api/shop/bookings/0/accept", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Accepted", body["status"])

	code, _ = shop.do(http.MethodPost, "/api/shop/bookings/0/deny", nil)
	assert.Equal(t, http.StatusConflict, code)
	code, _ = shop.do(http.MethodPost, "/api/shop/bookings/9/accept", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = shop.do(http.MethodPost, "/api/shop/bookings/abc/accept", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = shop.do(http.MethodGet, "/api/shop/calendar", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["events"].([]any), 1)

	// The accepted slot is no longer offered.
	code, body = customer.do(http.MethodGet, "/api/slots", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["slots"])

	code, _ = customer.do(http.MethodPost, "/api/feedback", gin.H{
		"name": "Alice", "email": "alice@example.com", "date": "2025-06-10", "timeSlot": "9:00 - 10:00",
		"resolved": "Yes", "comments": "brakes are quiet",
	})
	assert.Equal(t, http.StatusCreated, code)

	code, body = shop.do(http.MethodGet, "/api/shop/feedback", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["feedback"].([]any), 1)
}

func TestSessionRoutesRequireToken(t *testing.T) {
	c := &client{t: t, r: newTestRouter(t, "ok"), header: map[string]string{}}
	code, _ := c.do(http.MethodGet, "/api/session", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	c.header[utils.SessionHeader] = "forged"
	code, _ = c.do(http.MethodPost, "/api/session/identity", gin.H{"name": "A", "email": "a@example.com"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSessionValidationAndEnd(t *testing.T) {
	c := &client{t: t, r: newTestRouter(t, "Try new pads."), header: map[string]string{}}
	_, body := c.do(http.MethodPost, "/api/session", nil)
	c.header[utils.SessionHeader] = body["token"].(string)

	code, _ := c.do(http.MethodPost, "/api/session/identity", gin.H{"name": "Alice", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = c.do(http.MethodPost, "/api/session/vehicle", gin.H{"year": "2015", "make": "Honda", "model": "Civic", "issue": "noise"})
	assert.Equal(t, http.StatusConflict, code, "identity comes first")

	code, _ = c.do(http.MethodDelete, "/api/session", nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = c.do(http.MethodGet, "/api/session", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFaultCodeLookup(t *testing.T) {
	c := &client{t: t, r: newTestRouter(t, "ok")}
	code, body := c.do(http.MethodGet, "/api/fault-codes/p0171", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "P0171 System Too Lean (Bank 1)", body["description"])

	code, body = c.do(http.MethodGet, "/api/fault-codes/P0300", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, faultcode.NoDescription, body["description"])

	code, _ = c.do(http.MethodGet, "/api/fault-codes/xyz", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
