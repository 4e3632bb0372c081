package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"table-service/internal/common/apperr"
)

// writeProblem writes an RFC 7807 Problem+JSON body.
func writeProblem(c *gin.Context, status int, typ, detail string) {
	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(status, gin.H{
		"type":   typ,
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}

func (s *Server) fail(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	typ := string(apperr.CodeOf(err))
	detail := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request_failed", err, map[string]any{"path": c.FullPath()})
		typ, detail = "internal", "internal error"
	}
	writeProblem(c, status, typ, detail)
}

func mapErrorToStatus(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvariant:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, detail string) {
	writeProblem(c, http.StatusBadRequest, string(apperr.CodeInvalidRequest), detail)
}
