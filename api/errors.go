package api

import (
	"errors"
	"net/http"

	"cagnotte/domain"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindAccessDenied, domain.KindNotCreator, domain.KindSelfContributionForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindClosed, domain.KindAlreadyResolved, domain.KindAlreadyPublic, domain.KindStoreConflict:
		return http.StatusConflict
	case domain.KindNotExpiredYet, domain.KindNoParticipants, domain.KindWrongUsageMode:
		return http.StatusUnprocessableEntity
	case domain.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := StatusFor(kind)
	if kind == "" {
		kind = "internal_error"
	}

	entry := log.WithFields(log.Fields{
		"kind":   kind,
		"path":   c.FullPath(),
		"status": status,
		"error":  err,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	body := ErrorResponse{
		Error:   string(kind),
		Message: domain.UserMessageOf(err),
	}
	var ce *domain.CagnotteError
	if errors.As(err, &ce) && len(ce.Fields) > 0 {
		body.Fields = ce.Fields
	}
	c.AbortWithStatusJSON(status, body)
}
