package api

import (
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"hallpass-backend/internal/apperr"
	"hallpass-backend/internal/escalation"
	"hallpass-backend/internal/pass"
	"hallpass-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	passes  *pass.Service
	monitor *escalation.Monitor
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, passes *pass.Service, monitor *escalation.Monitor, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		passes:  passes,
		monitor: monitor,
		webpush: webpushOptions,
	}
}

// respondError maps an error kind onto an HTTP status and writes the
// message to the client.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindInvalidArgument:
		status = http.StatusBadRequest
	case apperr.KindUnauthenticated:
		status = http.StatusUnauthorized
	case apperr.KindPermissionDenied:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindFailedPrecondition:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
