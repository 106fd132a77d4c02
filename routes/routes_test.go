package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"parkingreserve/database"
	"parkingreserve/handlers"
	"parkingreserve/services"
	"parkingreserve/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.PasswordHashCost = bcrypt.MinCost
	utils.InitJWTSecret("routes-test-secret", time.Hour)
	os.Exit(m.Run())
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "parking.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := database.Open(database.Options{Driver: "sqlite", DSN: dsn, Release: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedSlots(db, database.DefaultSlotCount))

	timeout := 10 * time.Second
	return NewRouter(Handlers{
		Members:      handlers.NewMemberHandler(services.NewUserService(db, timeout)),
		Slots:        handlers.NewSlotHandler(services.NewSlotService(db, timeout)),
		Reservations: handlers.NewReservationHandler(services.NewReservationService(db, timeout)),
	})
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) (int, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func registerAndLogin(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	code, resp := doJSON(t, r, http.MethodPost, "/api/v1/members/register", "", gin.H{
		"email":            email,
		"password":         "longenough",
		"password_confirm": "longenough",
	})
	require.Equal(t, http.StatusCreated, code, resp.Error)

	code, resp = doJSON(t, r, http.MethodPost, "/api/v1/members/login", "", gin.H{
		"email":    email,
		"password": "longenough",
	})
	require.Equal(t, http.StatusOK, code, resp.Error)

	var data struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.Token)
	assert.Equal(t, 3600, data.ExpiresIn)
	return data.Token
}

func TestPing(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body gin.H
		code string
	}{
		{name: "missing fields", body: gin.H{"email": "a@b.com"}, code: "ERR_INVALID_INPUT"},
		{name: "bad email", body: gin.H{"email": "not-an-email", "password": "longenough", "password_confirm": "longenough"}},
		{name: "short password", body: gin.H{"email": "a@b.com", "password": "short1", "password_confirm": "short1"}},
		{name: "mismatch", body: gin.H{"email": "a@b.com", "password": "longenough", "password_confirm": "different1"}, code: "ERR_PASSWORD_MISMATCH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := doJSON(t, r, http.MethodPost, "/api/v1/members/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.False(t, resp.Status)
			if tt.code != "" {
				assert.Equal(t, tt.code, resp.Code)
			}
		})
	}

	registerAndLogin(t, r, "a@b.com")
	status, _ := doJSON(t, r, http.MethodPost, "/api/v1/members/register", "", gin.H{
		"email": "a@b.com", "password": "longenough", "password_confirm": "longenough",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = doJSON(t, r, http.MethodPost, "/api/v1/members/login", "", gin.H{
		"email": "a@b.com", "password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthRequired(t *testing.T) {
	r := newTestRouter(t)

	status, resp := doJSON(t, r, http.MethodGet, "/api/v1/slots", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "ERR_NO_AUTH_HEADER", resp.Code)

	status, resp = doJSON(t, r, http.MethodPost, "/api/v1/reservations", "not-a-jwt", gin.H{"slot_id": 1})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "ERR_INVALID_TOKEN", resp.Code)
}

func TestReservationFlow(t *testing.T) {
	r := newTestRouter(t)
	alice := registerAndLogin(t, r, "a@b.com")
	bob := registerAndLogin(t, r, "bob@b.com")

	status, resp := doJSON(t, r, http.MethodGet, "/api/v1/slots/available", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var listing struct {
		Filter  string `json:"filter"`
		Summary struct {
			Total     int `json:"total"`
			Available int `json:"available"`
		} `json:"summary"`
		Slots []struct {
			SlotID     int    `json:"slot_id"`
			SlotNumber string `json:"slot_number"`
		} `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &listing))
	require.Len(t, listing.Slots, database.DefaultSlotCount)
	slotID := listing.Slots[0].SlotID
	assert.Equal(t, "A-01", listing.Slots[0].SlotNumber)

	status, resp = doJSON(t, r, http.MethodPost, "/api/v1/reservations", alice, gin.H{"slot_id": slotID})
	require.Equal(t, http.StatusCreated, status, resp.Error)
	var created struct {
		ReservationID int    `json:"reservation_id"`
		SlotNumber    string `json:"slot_number"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, "A-01", created.SlotNumber)

	status, resp = doJSON(t, r, http.MethodPost, "/api/v1/reservations", bob, gin.H{"slot_id": slotID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ERR_SLOT_UNAVAILABLE", resp.Code)

	status, _ = doJSON(t, r, http.MethodPost, "/api/v1/reservations", bob, gin.H{"slot_id": 999})
	assert.Equal(t, http.StatusNotFound, status)

	reservationPath := fmt.Sprintf("/api/v1/reservations/%d", created.ReservationID)

	// 他人的預約與不存在的預約回應相同
	status, forbidden := doJSON(t, r, http.MethodGet, reservationPath, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, missing := doJSON(t, r, http.MethodGet, "/api/v1/reservations/9999", bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, missing.Code, forbidden.Code)
	assert.Equal(t, missing.Message, forbidden.Message)

	status, resp = doJSON(t, r, http.MethodGet, reservationPath, alice, nil)
	require.Equal(t, http.StatusOK, status, resp.Error)
	var view struct {
		QRImage string `json:"qr_image"`
		Summary struct {
			SlotNumber    string          `json:"slot_number"`
			QRCodePayload json.RawMessage `json:"qr_code_payload"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, "A-01", view.Summary.SlotNumber)
	require.NotEmpty(t, view.Summary.QRCodePayload)

	status, resp = doJSON(t, r, http.MethodPost, "/api/v1/reservations/verify", bob, gin.H{"image": view.QRImage})
	require.Equal(t, http.StatusOK, status, resp.Error)

	status, resp = doJSON(t, r, http.MethodGet, "/api/v1/reservations", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var mine []struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, created.ReservationID, mine[0].ID)

	status, _ = doJSON(t, r, http.MethodPost, reservationPath+"/checkout", bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, resp = doJSON(t, r, http.MethodPost, reservationPath+"/checkout", alice, nil)
	require.Equal(t, http.StatusOK, status, resp.Error)

	status, _ = doJSON(t, r, http.MethodGet, reservationPath, alice, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doJSON(t, r, http.MethodPost, "/api/v1/reservations/verify", bob, gin.H{"payload": string(view.Summary.QRCodePayload)})
	assert.Equal(t, http.StatusNotFound, status)

	status, resp = doJSON(t, r, http.MethodGet, "/api/v1/slots/available", bob, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(resp.Data, &listing))
	assert.Len(t, listing.Slots, database.DefaultSlotCount)
}

func TestDeleteProfileReleasesSlot(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r, "leaving@example.com")

	status, resp := doJSON(t, r, http.MethodPost, "/api/v1/reservations", token, gin.H{"slot_id": 2})
	require.Equal(t, http.StatusCreated, status, resp.Error)

	status, _ = doJSON(t, r, http.MethodDelete, "/api/v1/members/profile", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, r, http.MethodGet, "/api/v1/members/profile", token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	other := registerAndLogin(t, r, "next@example.com")
	status, resp = doJSON(t, r, http.MethodPost, "/api/v1/reservations", other, gin.H{"slot_id": 2})
	assert.Equal(t, http.StatusCreated, status, resp.Error)
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t)
	status, resp := doJSON(t, r, http.MethodGet, "/api/v2/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "ERR_NOT_FOUND", resp.Code)
}
