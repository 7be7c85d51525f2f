package handler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"ecoplaint/backend/internal/auth"
	"ecoplaint/backend/internal/complaint"
	"ecoplaint/backend/internal/config"

	"github.com/gin-gonic/gin"
)

var stageMessages = map[complaint.Stage]string{
	complaint.StageBegin:        "server_error",
	complaint.StageComplaint:    "complaint_error",
	complaint.StageNotification: "notification_error",
	complaint.StageCommit:       "commit_error",
}

// SubmitComplaint handles a multipart complaint with its evidence images.
// The bearer middleware has already run, so no body is read for
// unauthenticated callers.
func (h *Handler) SubmitComplaint(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		h.fail(c, http.StatusForbidden, "access_denied", nil)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		h.fail(c, http.StatusBadRequest, "missing_data", gin.H{
			"data": []string{"category", "location", config.EvidenceFormField},
		})
		return
	}
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_form", gin.H{"error": err.Error()})
		return
	}

	sub, err := decodeSubmission(form)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_form", gin.H{"error": err.Error()})
		return
	}

	res, err := h.Complaints.Submit(c.Request.Context(), identity, sub)

	var ve *complaint.ValidationError
	var se *complaint.SubmitError
	switch {
	case errors.As(err, &ve):
		key := "missing_data"
		if errors.Is(err, complaint.ErrTooManyImages) {
			key = "too_many_images"
		}
		h.fail(c, http.StatusBadRequest, key, gin.H{"data": []string{ve.Field}})
		return
	case errors.As(err, &se):
		h.serverError(c, stageMessages[se.Stage], se.Err)
		return
	case err != nil:
		log.Printf("ERROR: Unexpected submission failure: %v", err)
		h.serverError(c, "server_error", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   h.Messages.Message(c, "submission_ok"),
		"id":        res.ComplaintID,
		"reference": res.Reference,
	})
}

func decodeSubmission(form *multipart.Form) (complaint.Submission, error) {
	sub := complaint.Submission{
		Category:  formValue(form, "category"),
		Location:  formValue(form, "location"),
		Anonymous: parseAnonymous(formValue(form, "anonymous")),
	}

	for _, fh := range form.File[config.EvidenceFormField] {
		data, err := readPart(fh)
		if err != nil {
			return sub, fmt.Errorf("reading %s: %w", fh.Filename, err)
		}
		sub.Evidence = append(sub.Evidence, data)
	}
	return sub, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// parseAnonymous accepts only the literal "true", ignoring case and spaces.
func parseAnonymous(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
