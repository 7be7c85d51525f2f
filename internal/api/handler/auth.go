package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"ecoplaint/backend/internal/auth"
	"ecoplaint/backend/internal/models"
	"ecoplaint/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// invalidFields lists the JSON names of the fields that failed validation.
func invalidFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fields
}

// Register creates an account.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "missing_data", gin.H{"data": invalidFields(err)})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("ERROR: Failed to hash password: %v", err)
		h.serverError(c, "register_error", err)
		return
	}

	user := &models.User{Name: strings.TrimSpace(req.Name), Email: req.Email, PasswordHash: hash}
	if err := h.Store.SaveUser(c.Request.Context(), user); err != nil {
		if storage.IsKind(err, storage.KindConstraintViolation) {
			h.fail(c, http.StatusConflict, "email_taken", nil)
			return
		}
		log.Printf("ERROR: Failed to register user: %v", err)
		h.serverError(c, "register_error", err)
		return
	}

	log.Printf("INFO: User %d registered", user.ID)
	c.JSON(http.StatusOK, gin.H{"message": h.Messages.Message(c, "register_ok")})
}

// Login exchanges credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "missing_data", gin.H{"data": invalidFields(err)})
		return
	}

	user, err := h.Store.FindUserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		h.fail(c, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	if err != nil {
		log.Printf("ERROR: Failed to look up user: %v", err)
		h.serverError(c, "login_error", err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.fail(c, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}

	token, err := h.Issuer.Issue(user.ID)
	if err != nil {
		log.Printf("ERROR: Failed to issue token for user %d: %v", user.ID, err)
		h.serverError(c, "login_error", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": h.Messages.Message(c, "login_ok"), "token": token})
}
