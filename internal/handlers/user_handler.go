package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopauth/internal/services"
)

// UserHandler serves the admin account views.
type UserHandler struct {
	*BaseHandler
	service services.UserService
}

func NewUserHandler(base *BaseHandler, service services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, pageSize := ParsePagination(c)

	resp, err := h.service.ListUsers(c.Request.Context(), h.GetDB(c), page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
