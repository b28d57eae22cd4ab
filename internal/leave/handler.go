package leave

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ATMS-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/leaves", h.Submit)
	r.GET("/leaves/me", h.ListMine)

	admin.GET("/leaves", h.ListAll)
	admin.PUT("/leaves/:leave_ulid/decision", h.Decide)
}

// POST /leaves
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(NewInvalidArgumentError("invalid json or missing required fields")))
		return
	}

	res, err := h.svc.Submit(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /leaves/me
func (h *Handler) ListMine(c *gin.Context) {
	res, err := h.svc.ListFor(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /leaves?status=pending
func (h *Handler) ListAll(c *gin.Context) {
	res, err := h.svc.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// PUT /leaves/:leave_ulid/decision
func (h *Handler) Decide(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(NewInvalidArgumentError("invalid json or missing required fields")))
		return
	}

	res, err := h.svc.Decide(c.Request.Context(), c.Param("leave_ulid"), auth.UserID(c), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func toHTTPStatus(err error) int {
	var de *DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case ErrCodeInvalidArgument:
			return http.StatusBadRequest
		case ErrCodeNotFound:
			return http.StatusNotFound
		case ErrCodeConflict:
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}

func errorBody(err error) gin.H {
	var de *DomainError
	if errors.As(err, &de) {
		return gin.H{"code": de.Code, "message": de.Message}
	}
	return gin.H{"code": ErrCodeInternal, "message": "internal error"}
}
