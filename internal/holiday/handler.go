package holiday

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/holidays", h.List)
	admin.POST("/holidays", h.Create)
}

type CreateRequest struct {
	Date string `json:"date" binding:"required"`
	Name string `json:"name" binding:"required"`
}

// GET /holidays
func (h *Handler) List(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch holidays"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /holidays
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date and name are required"})
		return
	}

	res, err := h.svc.Create(c.Request.Context(), req.Date, req.Name)
	if err != nil {
		if errors.Is(err, ErrExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, ErrInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add holiday"})
		return
	}
	c.JSON(http.StatusCreated, res)
}
