// Package handler exposes the HTTP API.
package handler

import (
	"net/http"

	"ecoplaint/backend/internal/auth"
	"ecoplaint/backend/internal/complaint"
	"ecoplaint/backend/internal/config"
	"ecoplaint/backend/internal/hub"
	"ecoplaint/backend/internal/localization"
	"ecoplaint/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// Handler holds the dependencies of every route.
type Handler struct {
	Store      storage.Storage
	Complaints *complaint.Service
	Issuer     *auth.Issuer
	Verifier   *auth.Verifier
	Hub        *hub.ManagerService
	Messages   *localization.Localizer

	MaxUploadBytes int64
	AllowedOrigins []string
}

func NewHandler(
	store storage.Storage,
	complaints *complaint.Service,
	issuer *auth.Issuer,
	verifier *auth.Verifier,
	h *hub.ManagerService,
	messages *localization.Localizer,
) *Handler {
	return &Handler{
		Store:          store,
		Complaints:     complaints,
		Issuer:         issuer,
		Verifier:       verifier,
		Hub:            h,
		Messages:       messages,
		MaxUploadBytes: config.DefaultMaxUploadBytes,
	}
}

// NewRouter wires the routes onto a gin engine with logging and recovery.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = h.MaxUploadBytes

	requireBearer := auth.RequireBearer(h.Verifier, h.Messages.Message)

	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/submission", requireBearer, h.SubmitComplaint)
	r.GET("/notifications", h.ListNotifications)
	if h.Hub != nil {
		r.GET("/notifications/ws", requireBearer, h.ServeWebSocket)
	}

	return r
}

func (h *Handler) fail(c *gin.Context, status int, key string, extra gin.H) {
	body := gin.H{"message": h.Messages.Message(c, key)}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

func (h *Handler) serverError(c *gin.Context, key string, err error) {
	h.fail(c, http.StatusInternalServerError, key, gin.H{"error": err.Error()})
}
