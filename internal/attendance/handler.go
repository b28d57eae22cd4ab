package attendance

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ATMS-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// RegisterRoutes wires the employee-facing routes onto r and the
// admin-only ones onto admin. Both groups already carry RequireAuth.
func RegisterRoutes(r gin.IRoutes, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/attendance", h.Append)
	r.GET("/attendance/last", h.Last)
	r.GET("/attendance/me", h.ListMine)
	r.GET("/attendance/image/:ref", h.Image)

	admin.GET("/attendance/all", h.ListAll)
	admin.GET("/attendance/date/:date", h.ListByDate)
	admin.GET("/attendance/user/:user_id", h.ListUser)
	admin.GET("/attendance/user/:user_id/last", h.LastUser)
	admin.GET("/attendance/user/:user_id/summary/:year/:month", h.Summary)
	admin.GET("/admin/summary", h.AdminSummary)
	admin.GET("/admin/recent-attendance", h.Recent)
}

// POST /attendance
// multipart/form-data: type, location ("lat,lon"), image (JPEG).
// Optional Idempotency-Key header dedupes duplicate taps.
func (h *Handler) Append(c *gin.Context) {
	in := AppendInput{
		UserID:         auth.UserID(c),
		Kind:           c.PostForm("type"),
		Location:       c.PostForm("location"),
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrInvalid("image part is required"))
		return
	}
	if file.Size > MaxUploadBytes {
		c.JSON(http.StatusBadRequest, ErrInvalid("image exceeds upload limit"))
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrInvalid("unreadable image part"))
		return
	}
	in.Image, err = io.ReadAll(f)
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrInvalid("unreadable image part"))
		return
	}

	res, created, err := h.svc.Append(c.Request.Context(), in)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"message": "Attendance marked", "event": res})
}

// GET /attendance/last
func (h *Handler) Last(c *gin.Context) {
	res, err := h.svc.Last(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /attendance/me
func (h *Handler) ListMine(c *gin.Context) {
	res, err := h.svc.ListFor(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /attendance/image/:ref
func (h *Handler) Image(c *gin.Context) {
	rc, err := h.svc.OpenImage(c.Param("ref"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "image/jpeg")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

// GET /attendance/all
func (h *Handler) ListAll(c *gin.Context) {
	res, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /attendance/date/:date
func (h *Handler) ListByDate(c *gin.Context) {
	res, err := h.svc.ListByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /attendance/user/:user_id
func (h *Handler) ListUser(c *gin.Context) {
	res, err := h.svc.ListFor(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /attendance/user/:user_id/last
func (h *Handler) LastUser(c *gin.Context) {
	res, err := h.svc.Last(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /attendance/user/:user_id/summary/:year/:month
func (h *Handler) Summary(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrInvalid("year must be numeric"))
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrInvalid("month must be numeric"))
		return
	}

	res, err := h.svc.MonthlySummary(c.Request.Context(), c.Param("user_id"), year, month)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /admin/summary
func (h *Handler) AdminSummary(c *gin.Context) {
	res, err := h.svc.AdminSummary(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /admin/recent-attendance
func (h *Handler) Recent(c *gin.Context) {
	res, err := h.svc.Recent(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func errorBody(err error) any {
	var api *APIError
	if errors.As(err, &api) {
		return api
	}
	return ErrInternal("internal error")
}
