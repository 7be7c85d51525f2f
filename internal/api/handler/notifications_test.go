package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecoplaint/backend/internal/config"
	"ecoplaint/backend/internal/hub"
	"ecoplaint/backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestListNotifications(t *testing.T) {
	env := newTestEnv(t)
	recipient := uint(5)
	env.store.On("ListNotifications", mock.Anything, config.DefaultNotificationLimit).Return([]models.Notification{
		{
			ID:          2,
			RecipientID: &recipient,
			Kind:        config.NotificationKind,
			Message:     "Denúncia enviada: Lixo em Rua X",
			SentAt:      time.Date(2024, 5, 10, 14, 3, 9, 0, time.UTC),
		},
		{ID: 1, Kind: config.NotificationKind, Message: "Denúncia enviada: Água em Av. 1", SentAt: time.Date(2024, 5, 9, 8, 0, 0, 0, time.UTC)},
	}, nil)

	w := env.do(httptest.NewRequest(http.MethodGet, "/notifications", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "10/05/2024 14:03:09", got[0]["sent_at"])
	assert.Equal(t, "Push Notification", got[0]["type"])
	assert.EqualValues(t, 5, got[0]["recipient"])
	assert.Equal(t, false, got[0]["read"])
	assert.Nil(t, got[1]["recipient"])
}

func TestListNotifications_Limit(t *testing.T) {
	tests := []struct {
		query string
		limit int
	}{
		{query: "?limit=10", limit: 10},
		{query: "?limit=5000", limit: config.MaxNotificationLimit},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			env := newTestEnv(t)
			env.store.On("ListNotifications", mock.Anything, tt.limit).Return([]models.Notification{}, nil).Once()

			w := env.do(httptest.NewRequest(http.MethodGet, "/notifications"+tt.query, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, "[]", w.Body.String())
			env.store.AssertExpectations(t)
		})
	}
}

func TestListNotifications_InvalidLimit(t *testing.T) {
	for _, q := range []string{"?limit=abc", "?limit=0", "?limit=-3"} {
		t.Run(q, func(t *testing.T) {
			env := newTestEnv(t)

			w := env.do(httptest.NewRequest(http.MethodGet, "/notifications"+q, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			env.store.AssertNotCalled(t, "ListNotifications", mock.Anything, mock.Anything)
		})
	}
}

func TestListNotifications_StorageFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.On("ListNotifications", mock.Anything, mock.Anything).Return(nil, errors.New("conn refused"))

	w := env.do(httptest.NewRequest(http.MethodGet, "/notifications", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Erro ao buscar notificações", body["message"])
	assert.Equal(t, "conn refused", body["error"])
}

func TestServeWebSocket(t *testing.T) {
	// Arrange
	h := hub.NewManagerService(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)

	env := newTestEnv(t, withHub(h))
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/notifications/ws"

	// Act
	header := http.Header{"Authorization": []string{"Bearer " + env.token(t, 5)}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.Connected(5) == 1 }, time.Second, 10*time.Millisecond)

	recipient := uint(5)
	h.NotifyCh <- models.Notification{ID: 1, RecipientID: &recipient, Message: "Denúncia enviada: Lixo em Rua X"}

	// Assert
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got models.Notification
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "Denúncia enviada: Lixo em Rua X", got.Message)
}

func TestServeWebSocket_RequiresToken(t *testing.T) {
	h := hub.NewManagerService(nil)
	env := newTestEnv(t, withHub(h))
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/notifications/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServeWebSocket_Origin(t *testing.T) {
	const self = "self"
	tests := []struct {
		name    string
		origin  string
		allowed []string
		wantOK  bool
	}{
		{name: "no origin header", origin: "", wantOK: true},
		{name: "same origin", origin: self, wantOK: true},
		{name: "foreign origin", origin: "https://evil.example", wantOK: false},
		{name: "foreign origin not in list", origin: "https://evil.example", allowed: []string{"https://app.ecoplaint.org"}, wantOK: false},
		{name: "configured origin", origin: "https://app.ecoplaint.org", allowed: []string{"https://app.ecoplaint.org"}, wantOK: true},
		{name: "wildcard", origin: "https://anything.example", allowed: []string{"*"}, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := hub.NewManagerService(nil)
			ctx, cancel := context.WithCancel(context.Background())
			t.Cleanup(cancel)
			go h.Run(ctx)

			env := newTestEnv(t, withHub(h), withAllowedOrigins(tt.allowed...))
			srv := httptest.NewServer(env.router)
			t.Cleanup(srv.Close)
			url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/notifications/ws"

			header := http.Header{"Authorization": []string{"Bearer " + env.token(t, 5)}}
			switch tt.origin {
			case "":
			case self:
				header.Set("Origin", srv.URL)
			default:
				header.Set("Origin", tt.origin)
			}

			conn, resp, err := websocket.DefaultDialer.Dial(url, header)

			if tt.wantOK {
				require.NoError(t, err)
				defer conn.Close()
				assert.Eventually(t, func() bool { return h.Connected(5) == 1 }, time.Second, 10*time.Millisecond)
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Equal(t, 0, h.Connected(5))
		})
	}
}
