package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mealdash/surge-areas/internal/events"
	"github.com/mealdash/surge-areas/internal/geometry"
	"github.com/mealdash/surge-areas/internal/models"
	"github.com/mealdash/surge-areas/internal/query"
	"github.com/mealdash/surge-areas/internal/repository"
)

type Handler struct {
	store           repository.SurgeAreaStore
	audit           repository.AuditStore
	broadcaster     *events.Broadcaster
	defaultPageSize int
	maxPageSize     int
}

func NewHandler(store repository.SurgeAreaStore, audit repository.AuditStore, broadcaster *events.Broadcaster, defaultPageSize, maxPageSize int) *Handler {
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = 100
	}
	return &Handler{
		store:           store,
		audit:           audit,
		broadcaster:     broadcaster,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/api/surge-areas", h.listSurgeAreas)
	r.POST("/api/surge-areas", h.createSurgeArea)
	r.PATCH("/api/surge-areas/:id/toggle", h.toggleSurgeArea)
	r.DELETE("/api/surge-areas/:id", h.deleteSurgeArea)
	r.GET("/api/surge-areas/stats", h.stats)
	r.GET("/api/surge-areas/geojson", h.geoJSON)
	r.GET("/api/surge-areas/stream", h.stream)
	r.GET("/api/surge-areas/audit", h.auditTrail)
}

// ok and fail wrap every /api response in the success/data/message
// envelope consumers key on.
func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// areaView is a listed row plus the per-render derived fields. LiveStatus
// is recomputed on every request; it is never stored.
type areaView struct {
	models.SurgeArea
	LiveStatus  models.LiveStatus `json:"liveStatus"`
	ReasonGroup string            `json:"reasonGroup"`
}

type pageView struct {
	Items       []areaView `json:"items"`
	Total       int        `json:"total"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
}

func (h *Handler) parseListRequest(c *gin.Context) query.ListRequest {
	req := query.DefaultListRequest(h.defaultPageSize)

	if p := c.Query("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			req.Page = n
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if n, err := strconv.Atoi(ps); err == nil && n > 0 && n <= h.maxPageSize {
			req.PageSize = n
		}
	}
	req.Search = c.Query("search")
	req.Status = query.ParseStatusFilter(c.Query("status"))
	req.Type = query.ParseTypeFilter(c.Query("type"))
	req.SortKey = query.ParseSortKey(c.Query("sort_by"))
	req.SortDir = query.ParseSortDirection(c.Query("sort_dir"))
	return req
}

func (h *Handler) listSurgeAreas(c *gin.Context) {
	page, err := h.store.List(c.Request.Context(), h.parseListRequest(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list surge areas")
		return
	}

	now := time.Now()
	items := make([]areaView, 0, len(page.Items))
	for _, a := range page.Items {
		items = append(items, areaView{
			SurgeArea:   a,
			LiveStatus:  a.LiveStatus(now),
			ReasonGroup: models.ReasonGroup(a.SurgeReason),
		})
	}

	ok(c, pageView{
		Items:       items,
		Total:       page.Total,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
	})
}

// createRequest is the creation wire shape: flat metadata plus either a
// GeoJSON-style polygon under area or a circle as center+radius.
type createRequest struct {
	Name        string           `json:"name"`
	SurgeReason string           `json:"surgeReason"`
	SurgeType   string           `json:"surgeType"` // fixed | percentage
	SurgeValue  float64          `json:"surgeValue"`
	StartTime   time.Time        `json:"startTime"`
	EndTime     time.Time        `json:"endTime"`
	AreaSizeKm2 float64          `json:"areaSizeKm2"`
	Type        string           `json:"type"` // Polygon | Circle
	Area        *struct {
		Type        string           `json:"type"`
		Coordinates [][]models.Point `json:"coordinates"`
	} `json:"area"`
	Center *models.Point `json:"center"`
	Radius float64       `json:"radius"`
}

func (r *createRequest) geometry() (models.Geometry, string) {
	switch r.Type {
	case string(models.GeometryKindPolygon):
		if r.Area == nil || len(r.Area.Coordinates) == 0 {
			return models.Geometry{}, "polygon payload missing ring"
		}
		ring := r.Area.Coordinates[0]
		if !geometry.ValidRing(ring) {
			return models.Geometry{}, "ring must be closed with at least 3 distinct vertices"
		}
		return models.PolygonGeometry(ring), ""
	case string(models.GeometryKindCircle):
		if r.Center == nil {
			return models.Geometry{}, "circle payload missing center"
		}
		if r.Radius <= 0 {
			return models.Geometry{}, "circle radius must be positive"
		}
		return models.CircleGeometry(*r.Center, r.Radius), ""
	default:
		return models.Geometry{}, "geometry type must be Polygon or Circle"
	}
}

func (h *Handler) createSurgeArea(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	geom, msg := req.geometry()
	if msg != "" {
		fail(c, http.StatusBadRequest, msg)
		return
	}
	if req.Name == "" {
		fail(c, http.StatusBadRequest, "name is required")
		return
	}
	if req.SurgeReason == "" {
		fail(c, http.StatusBadRequest, "surge reason is required")
		return
	}
	if req.SurgeValue <= 0 {
		fail(c, http.StatusBadRequest, "surge value must be a positive number")
		return
	}
	surgeType, okType := models.ParseSurgeType(req.SurgeType)
	if !okType {
		fail(c, http.StatusBadRequest, "surge type must be fixed or percentage")
		return
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		fail(c, http.StatusBadRequest, "start and end times are required")
		return
	}
	if !req.EndTime.After(req.StartTime) {
		fail(c, http.StatusBadRequest, "end time must be after start time")
		return
	}

	// The stored area estimate is authoritative at creation time and
	// never recomputed on read.
	in := repository.CreateInput{
		Name:        req.Name,
		SurgeReason: req.SurgeReason,
		SurgeType:   surgeType,
		SurgeValue:  req.SurgeValue,
		Geometry:    geom,
		AreaSizeKm2: geometry.EstimateArea(geom),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}

	area, err := h.store.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to create surge area")
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.Broadcast(events.ZoneEvent{
			Kind:     events.EventCreated,
			AreaID:   area.ID,
			AreaName: area.Name,
			Area:     area,
		})
	}

	ok(c, area)
}

func (h *Handler) toggleSurgeArea(c *gin.Context) {
	id := c.Param("id")
	isActive, err := h.store.Toggle(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			fail(c, http.StatusNotFound, "surge area not found")
			return
		}
		fail(c, http.StatusInternalServerError, "failed to toggle surge area")
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.Broadcast(events.ZoneEvent{
			Kind:     events.EventToggled,
			AreaID:   id,
			IsActive: isActive,
		})
	}

	ok(c, gin.H{"isActive": isActive})
}

func (h *Handler) deleteSurgeArea(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			fail(c, http.StatusNotFound, "surge area not found")
			return
		}
		fail(c, http.StatusInternalServerError, "failed to delete surge area")
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.Broadcast(events.ZoneEvent{
			Kind:   events.EventDeleted,
			AreaID: id,
		})
	}

	ok(c, gin.H{"id": id})
}

// collectAll pages through the store so counters always reflect the whole
// collection, not one page.
func (h *Handler) collectAll(c *gin.Context) ([]models.SurgeArea, error) {
	req := query.DefaultListRequest(h.maxPageSize)
	var all []models.SurgeArea
	for {
		page, err := h.store.List(c.Request.Context(), req)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.CurrentPage >= page.TotalPages || len(page.Items) == 0 {
			return all, nil
		}
		req.Page = page.CurrentPage + 1
	}
}

func (h *Handler) stats(c *gin.Context) {
	all, err := h.collectAll(c)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	ok(c, models.CountStatuses(all, time.Now()))
}

func (h *Handler) geoJSON(c *gin.Context) {
	all, err := h.collectAll(c)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list surge areas")
		return
	}

	fc := toGeoJSON(all, time.Now())
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

// stream pushes zone change events to the client as SSE until it
// disconnects or the broadcaster shuts down.
func (h *Handler) stream(c *gin.Context) {
	if h.broadcaster == nil {
		fail(c, http.StatusServiceUnavailable, "streaming is not enabled")
		return
	}

	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, open := <-ch:
			if !open {
				return false
			}
			c.SSEvent(string(ev.Kind), ev)
			return true
		}
	})
}

func (h *Handler) auditTrail(c *gin.Context) {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	entries, err := h.audit.ListAuditEvents(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list audit events")
		return
	}
	ok(c, entries)
}
