package handler_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"ecoplaint/backend/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jpeg1 = image{name: "a.jpg", data: []byte("\xff\xd8\xff\xe0first")}
	jpeg2 = image{name: "b.jpg", data: []byte("\xff\xd8\xff\xe0second")}
)

func validFields(anonymous string) map[string]string {
	return map[string]string{
		"category":  "Lixo",
		"location":  "Rua X",
		"anonymous": anonymous,
	}
}

func TestSubmitComplaint_MissingCredential(t *testing.T) {
	env := newTestEnv(t)
	req := multipartRequest(t, validFields("false"), jpeg1)

	w := env.do(req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Acesso negado.", decodeBody(t, w)["message"])
	assert.Zero(t, env.mem.Begun)
}

func TestSubmitComplaint_ExpiredCredential(t *testing.T) {
	env := newTestEnv(t)
	expired, err := auth.NewIssuer(env.keys, time.Hour).
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).
		Issue(5)
	require.NoError(t, err)

	req := multipartRequest(t, validFields("false"), jpeg1)
	req.Header.Set("Authorization", "Bearer "+expired)
	w := env.do(req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token inválido.", decodeBody(t, w)["message"])
	assert.Zero(t, env.mem.Begun)
}

func TestSubmitComplaint_WrongSecret(t *testing.T) {
	env := newTestEnv(t)
	forged, err := auth.NewIssuer(auth.NewKeys("other-secret"), time.Hour).Issue(5)
	require.NoError(t, err)

	req := multipartRequest(t, validFields("false"), jpeg1)
	req.Header.Set("Authorization", "Bearer "+forged)
	w := env.do(req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, env.mem.Complaints())
}

func TestSubmitComplaint_Success(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	req := multipartRequest(t, validFields("false"), jpeg1, jpeg2)
	req.Header.Set("Authorization", "Bearer "+env.token(t, 5))

	// Act
	w := env.do(req)

	// Assert
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "Denúncia enviada e notificação registrada com sucesso", body["message"])
	assert.NotEmpty(t, body["reference"])

	complaints := env.mem.Complaints()
	notifications := env.mem.Notifications()
	require.Len(t, complaints, 1)
	require.Len(t, notifications, 1)

	c := complaints[0]
	require.NotNil(t, c.AuthorID)
	assert.Equal(t, uint(5), *c.AuthorID)
	assert.EqualValues(t, c.ID, body["id"])
	require.Len(t, c.Images, 2)
	assert.Equal(t, jpeg1.data, c.Images[0])
	assert.Equal(t, jpeg2.data, c.Images[1])

	n := notifications[0]
	require.NotNil(t, n.RecipientID)
	assert.Equal(t, uint(5), *n.RecipientID)
	assert.Contains(t, n.Message, "Lixo")
	assert.Contains(t, n.Message, "Rua X")
}

func TestSubmitComplaint_Anonymous(t *testing.T) {
	for _, literal := range []string{"true", "TRUE", " True "} {
		t.Run(literal, func(t *testing.T) {
			env := newTestEnv(t)
			req := multipartRequest(t, validFields(literal), jpeg1)
			req.Header.Set("Authorization", "Bearer "+env.token(t, 5))

			w := env.do(req)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			require.Len(t, env.mem.Complaints(), 1)
			assert.Nil(t, env.mem.Complaints()[0].AuthorID)
			assert.True(t, env.mem.Complaints()[0].Anonymous)
			assert.Nil(t, env.mem.Notifications()[0].RecipientID)
		})
	}
}

func TestSubmitComplaint_NonTrueIsNotAnonymous(t *testing.T) {
	for _, literal := range []string{"", "false", "yes", "1"} {
		t.Run(literal, func(t *testing.T) {
			env := newTestEnv(t)
			req := multipartRequest(t, validFields(literal), jpeg1)
			req.Header.Set("Authorization", "Bearer "+env.token(t, 5))

			w := env.do(req)

			require.Equal(t, http.StatusOK, w.Code)
			require.NotNil(t, env.mem.Complaints()[0].AuthorID)
		})
	}
}

func TestSubmitComplaint_NotificationFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mem.FailNotification = errors.New("relation \"notifications\" does not exist")
	req := multipartRequest(t, validFields("false"), jpeg1)
	req.Header.Set("Authorization", "Bearer "+env.token(t, 5))

	w := env.do(req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Erro ao registrar notificação", body["message"])
	assert.NotEmpty(t, body["error"])
	assert.Empty(t, env.mem.Complaints())
	assert.Empty(t, env.mem.Notifications())
}

func TestSubmitComplaint_RollbackFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mem.FailNotification = errors.New("disk full")
	env.mem.FailRollback = errors.New("connection lost")
	req := multipartRequest(t, validFields("false"), jpeg1)
	req.Header.Set("Authorization", "Bearer "+env.token(t, 5))

	w := env.do(req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Erro ao registrar notificação", body["message"])
	assert.Contains(t, body["error"], "disk full")
	assert.Empty(t, env.mem.Complaints())
	assert.Empty(t, env.mem.Notifications())
}

func TestSubmitComplaint_StorageFailureMessages(t *testing.T) {
	tests := []struct {
		name    string
		arrange func(*testEnv)
		want    string
	}{
		{name: "begin", arrange: func(e *testEnv) { e.mem.FailBegin = errors.New("no connection") }, want: "Erro no servidor"},
		{name: "complaint", arrange: func(e *testEnv) { e.mem.FailComplaint = errors.New("conn reset") }, want: "Erro ao registrar denúncia"},
		{name: "commit", arrange: func(e *testEnv) { e.mem.FailCommit = errors.New("conn reset") }, want: "Erro ao confirmar a transação"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.arrange(env)
			req := multipartRequest(t, validFields("false"), jpeg1)
			req.Header.Set("Authorization", "Bearer "+env.token(t, 5))

			w := env.do(req)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, tt.want, decodeBody(t, w)["message"])
			assert.Empty(t, env.mem.Complaints())
		})
	}
}

func TestSubmitComplaint_BadPayload(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		images   []image
		wantMsg  string
		wantData []any
	}{
		{
			name:     "missing category",
			fields:   map[string]string{"location": "Rua X"},
			images:   []image{jpeg1},
			wantMsg:  "Dados faltando",
			wantData: []any{"category"},
		},
		{
			name:     "missing location",
			fields:   map[string]string{"category": "Lixo"},
			images:   []image{jpeg1},
			wantMsg:  "Dados faltando",
			wantData: []any{"location"},
		},
		{
			name:     "no images",
			fields:   validFields("false"),
			wantMsg:  "Dados faltando",
			wantData: []any{"images"},
		},
		{
			name:     "five images",
			fields:   validFields("false"),
			images:   []image{jpeg1, jpeg2, jpeg1, jpeg2, jpeg1},
			wantMsg:  "No máximo 4 imagens são permitidas",
			wantData: []any{"images"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			req := multipartRequest(t, tt.fields, tt.images...)
			req.Header.Set("Authorization", "Bearer "+env.token(t, 5))

			w := env.do(req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tt.wantMsg, body["message"])
			assert.Equal(t, tt.wantData, body["data"])
			assert.Zero(t, env.mem.Begun)
		})
	}
}

func TestSubmitComplaint_NotMultipart(t *testing.T) {
	env := newTestEnv(t)
	req := jsonRequest(t, http.MethodPost, "/submission", map[string]string{"category": "Lixo"})
	req.Header.Set("Authorization", "Bearer "+env.token(t, 5))

	w := env.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{"category", "location", "images"}, decodeBody(t, w)["data"])
	assert.Zero(t, env.mem.Begun)
}

func TestSubmitComplaint_BodyTooLarge(t *testing.T) {
	env := newTestEnv(t, withMaxUpload(1024))
	big := image{name: "big.jpg", data: []byte(strings.Repeat("x", 4096))}
	req := multipartRequest(t, validFields("false"), big)
	req.Header.Set("Authorization", "Bearer "+env.token(t, 5))

	w := env.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, env.mem.Begun)
}

func TestSubmitComplaint_EnglishMessages(t *testing.T) {
	env := newTestEnv(t)
	req := multipartRequest(t, validFields("false"), jpeg1)
	req.Header.Set("Accept-Language", "en-US")

	w := env.do(req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied.", decodeBody(t, w)["message"])
}
