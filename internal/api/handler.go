package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rh-editor/internal/editor"
	"rh-editor/internal/model"
	"rh-editor/internal/registry"
)

// History lists journaled writes, newest first.
type History interface {
	History(ctx context.Context, name string, limit int) ([]model.WriteRecord, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc     *editor.Service
	history History
}

func NewHandler(svc *editor.Service, history History) *Handler {
	return &Handler{svc: svc, history: history}
}

type equipmentView struct {
	model.Equipment
	Address    string     `json:"address"`
	Group      string     `json:"group"`
	LastHours  *string    `json:"last_hours"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
}

func (h *Handler) view(e model.Equipment) equipmentView {
	v := equipmentView{Equipment: e, Address: e.Address()}
	if c, ok := h.svc.Controllers().Lookup(e.Controller); ok {
		v.Group = string(c.Group)
	}
	if r, ok := h.svc.LastReading(e.Name); ok {
		text := r.HoursText()
		v.LastHours = &text
		v.LastReadAt = &r.At
	}
	return v
}

// GetGroups handles GET /api/groups.
func (h *Handler) GetGroups(c *gin.Context) {
	groups := h.svc.Controllers().Groups()
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, string(g))
	}
	c.JSON(http.StatusOK, out)
}

// ListEquipment handles GET /api/equips?q=&group=.
func (h *Handler) ListEquipment(c *gin.Context) {
	q := registry.Query{Text: c.Query("q"), Group: model.GroupID(c.Query("group"))}
	records := h.svc.Equipment().Filter(h.svc.Controllers(), q)
	out := make([]equipmentView, 0, len(records))
	for _, e := range records {
		out = append(out, h.view(e))
	}
	c.JSON(http.StatusOK, out)
}

// GetEquipment handles GET /api/equips/:name.
func (h *Handler) GetEquipment(c *gin.Context) {
	e, ok := h.svc.Equipment().Lookup(c.Param("name"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown equipment"})
		return
	}
	c.JSON(http.StatusOK, h.view(e))
}

type readingResponse struct {
	Name    string    `json:"eq_name"`
	Address string    `json:"address"`
	Seconds int32     `json:"seconds"`
	Hours   string    `json:"hours"`
	ReadAt  time.Time `json:"read_at"`
}

func newReadingResponse(r editor.Reading) readingResponse {
	return readingResponse{
		Name:    r.Equipment.Name,
		Address: r.Equipment.Address(),
		Seconds: r.Seconds,
		Hours:   r.HoursText(),
		ReadAt:  r.At,
	}
}

// ReadHours handles GET /api/equips/:name/hours.
func (h *Handler) ReadHours(c *gin.Context) {
	r, err := h.svc.Read(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReadingResponse(r))
}

type writeRequest struct {
	Hours string `json:"hours"`
}

type writeResponse struct {
	Name      string           `json:"eq_name"`
	Address   string           `json:"address"`
	Hours     float64          `json:"hours"`
	Seconds   int64            `json:"seconds"`
	Confirmed *readingResponse `json:"confirmed"`
	Warning   string           `json:"warning,omitempty"`
}

// WriteHours handles PUT /api/equips/:name/hours.
func (h *Handler) WriteHours(c *gin.Context) {
	var req writeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	res, err := h.svc.Write(c.Request.Context(), c.Param("name"), req.Hours)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := writeResponse{
		Name:    res.Equipment.Name,
		Address: res.Equipment.Address(),
		Hours:   res.Hours,
		Seconds: res.Seconds,
	}
	if res.Confirmed != nil {
		rr := newReadingResponse(*res.Confirmed)
		out.Confirmed = &rr
	}
	if res.ConfirmErr != nil {
		out.Warning = res.ConfirmErr.Error()
	}
	c.JSON(http.StatusOK, out)
}

// GetHistory handles GET /api/equips/:name/history?limit=.
func (h *Handler) GetHistory(c *gin.Context) {
	if h.history == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "journal disabled"})
		return
	}
	name := c.Param("name")
	if _, ok := h.svc.Equipment().Lookup(name); !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown equipment"})
		return
	}
	limit := 50
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	rows, err := h.history.History(c.Request.Context(), name, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to read journal"})
		return
	}
	if rows == nil {
		rows = []model.WriteRecord{}
	}
	c.JSON(http.StatusOK, rows)
}

func abortWithError(c *gin.Context, err error) {
	var (
		ce *editor.ConnectionError
		pe *editor.ProtocolError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, editor.ErrUnknownEquipment):
		status = http.StatusNotFound
	case editor.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, editor.ErrControllerNotFound):
		status = http.StatusConflict
	case errors.As(err, &ce), errors.As(err, &pe):
		status = http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
