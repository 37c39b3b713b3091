package handler

import (
	"errors"
	"net/http"
	"strconv"

	"family-portal/internal/finance"
	"family-portal/internal/util"

	"github.com/gin-gonic/gin"
)

// actorFrom pulls the authenticated actor that AuthMiddleware stored.
func actorFrom(c *gin.Context) (finance.Actor, bool) {
	v, ok := c.Get("actor")
	if !ok {
		util.Error(c, http.StatusUnauthorized, "not signed in")
		return finance.Actor{}, false
	}
	actor, ok := v.(finance.Actor)
	if !ok {
		util.Error(c, http.StatusInternalServerError, "invalid session state")
		return finance.Actor{}, false
	}
	return actor, true
}

// writeFinanceError maps core errors onto the API's status codes.
func writeFinanceError(c *gin.Context, err error) {
	var verr *finance.ValidationError
	switch {
	case errors.As(err, &verr):
		util.Error(c, http.StatusBadRequest, verr.Error())
	case errors.Is(err, finance.ErrInsufficientFunds):
		util.Error(c, http.StatusBadRequest, "insufficient funds")
	case errors.Is(err, finance.ErrPermissionDenied):
		util.Error(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, finance.ErrNotFound):
		util.Error(c, http.StatusNotFound, "not found")
	default:
		util.Error(c, http.StatusInternalServerError, "internal error")
	}
}

// idParam parses the :id path segment.
func idParam(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		util.Error(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(v), true
}

// adminUserFilter reads the admin-only ?user_id= narrowing parameter.
func adminUserFilter(c *gin.Context, actor finance.Actor) *uint {
	if !actor.IsAdmin {
		return nil
	}
	if v, err := strconv.ParseUint(c.Query("user_id"), 10, 32); err == nil {
		id := uint(v)
		return &id
	}
	return nil
}

func intQuery(c *gin.Context, name string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(name)); err == nil {
		return v
	}
	return fallback
}
