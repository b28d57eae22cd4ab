package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ATMS-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// RegisterPublicRoutes mounts the unauthenticated registration endpoint.
func RegisterPublicRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/register", h.Register)
}

func RegisterRoutes(r gin.IRoutes, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/users/me", h.Me)

	admin.GET("/admin/pending-users", h.ListPending)
	admin.POST("/admin/approve/:id", h.Approve)
	admin.GET("/users", h.List)
	admin.GET("/users/:id", h.Get)
	admin.PUT("/users/:id", h.Update)
	admin.PUT("/users/:id/salary", h.UpdateSalary)
}

// POST /register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrInvalid("all fields are required"))
		return
	}

	res, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration submitted and pending admin approval",
		"pending": res,
	})
}

// GET /admin/pending-users
func (h *Handler) ListPending(c *gin.Context) {
	res, err := h.svc.ListPending(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /admin/approve/:id
func (h *Handler) Approve(c *gin.Context) {
	res, err := h.svc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User approved and created successfully",
		"user":    res,
	})
}

// GET /users/me
func (h *Handler) Me(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /users
func (h *Handler) List(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /users/:id
func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// PUT /users/:id
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrInvalid("invalid json"))
		return
	}

	res, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "user": res})
}

// PUT /users/:id/salary
func (h *Handler) UpdateSalary(c *gin.Context) {
	var req SalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrInvalid("invalid salary value"))
		return
	}

	res, err := h.svc.UpdateSalary(c.Request.Context(), c.Param("id"), req.Salary)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Salary updated successfully", "user": res})
}

func errorBody(err error) any {
	var api *APIError
	if errors.As(err, &api) {
		return api
	}
	return ErrInternal("internal error")
}
