// Package session owns the mutable operator state for surge-area
// administration: the in-progress creation form, the working geometry,
// per-row busy flags, and the last-fetched listing page. All state lives
// in a single Session value; nothing here is global.
package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/mealdash/surge-areas/internal/geometry"
	"github.com/mealdash/surge-areas/internal/models"
	"github.com/mealdash/surge-areas/internal/query"
	"github.com/mealdash/surge-areas/internal/repository"
)

// Validation errors, surfaced inline and never sent to the store. Create
// checks them in exactly this order.
var (
	ErrMissingGeometry   = errors.New("no geometry has been drawn")
	ErrMissingName       = errors.New("name is required")
	ErrMissingReason     = errors.New("surge reason is required")
	ErrInvalidSurgeValue = errors.New("surge value must be a positive number")
	ErrMissingSchedule   = errors.New("start and end times are required")
	ErrInvalidSchedule   = errors.New("end time must be after start time")
)

var (
	ErrRowBusy       = errors.New("another operation is in flight for this area")
	ErrNotConfirmed  = errors.New("deletion requires confirmation")
	ErrInvalidCircle = errors.New("circle radius must be positive")
	ErrInvalidRing   = errors.New("ring must be closed with at least 3 distinct vertices")
	// ErrStaleFetch marks a list response superseded by a newer request;
	// the result is discarded, not installed.
	ErrStaleFetch = errors.New("list response superseded by a newer request")
)

// Draft is the in-progress creation form. SurgeValue is kept as the raw
// operator input and parsed during validation.
type Draft struct {
	Name        string
	SurgeReason string
	SurgeType   models.SurgeType
	SurgeValue  string
	StartTime   *time.Time
	EndTime     *time.Time
}

type Session struct {
	store    repository.SurgeAreaStore
	pageSize int

	mu       sync.Mutex
	draft    Draft
	geom     *models.Geometry
	ring     []models.Point // display ring; derived for circles
	busy     map[string]bool
	page     query.Page
	havePage bool
	req      query.ListRequest
	sort     query.SortState
	fetchSeq uint64
}

func New(store repository.SurgeAreaStore, pageSize int) *Session {
	req := query.DefaultListRequest(pageSize)
	return &Session{
		store:    store,
		pageSize: pageSize,
		busy:     make(map[string]bool),
		req:      req,
		sort:     query.SortState{Key: req.SortKey, Dir: req.SortDir},
	}
}

// SetCircle stages a circle geometry, discarding any previously built
// geometry first, and derives the display ring.
func (s *Session) SetCircle(center models.Point, radiusKm float64) error {
	if radiusKm <= 0 {
		return ErrInvalidCircle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geom = nil
	s.ring = nil
	g := models.CircleGeometry(center, radiusKm)
	s.geom = &g
	s.ring = geometry.CircleRing(center, radiusKm)
	return nil
}

// SetPolygon stages a user-drawn ring, discarding any previously built
// geometry first. The ring is passed through unchanged.
func (s *Session) SetPolygon(ring []models.Point) error {
	if !geometry.ValidRing(ring) {
		return ErrInvalidRing
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geom = nil
	s.ring = nil
	own := make([]models.Point, len(ring))
	copy(own, ring)
	g := models.PolygonGeometry(own)
	s.geom = &g
	s.ring = own
	return nil
}

func (s *Session) ClearGeometry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geom = nil
	s.ring = nil
}

// WorkingRing returns a copy of the current display ring, or nil when no
// geometry is staged.
func (s *Session) WorkingRing() []models.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ring == nil {
		return nil
	}
	out := make([]models.Point, len(s.ring))
	copy(out, s.ring)
	return out
}

// AreaEstimate returns the km^2 estimate for the working geometry, 0 when
// none is staged.
func (s *Session) AreaEstimate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.geom == nil {
		return 0
	}
	return geometry.EstimateArea(*s.geom)
}

func (s *Session) SetDraft(d Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = d
}

func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// validateLocked runs the ordered pre-submission checks and, when they all
// pass, assembles the creation input with the computed area estimate.
func (s *Session) validateLocked() (repository.CreateInput, error) {
	if s.geom == nil {
		return repository.CreateInput{}, ErrMissingGeometry
	}
	if s.draft.Name == "" {
		return repository.CreateInput{}, ErrMissingName
	}
	if s.draft.SurgeReason == "" {
		return repository.CreateInput{}, ErrMissingReason
	}
	value, err := strconv.ParseFloat(s.draft.SurgeValue, 64)
	if err != nil || value <= 0 {
		return repository.CreateInput{}, ErrInvalidSurgeValue
	}
	if s.draft.StartTime == nil || s.draft.EndTime == nil {
		return repository.CreateInput{}, ErrMissingSchedule
	}
	if !s.draft.EndTime.After(*s.draft.StartTime) {
		return repository.CreateInput{}, ErrInvalidSchedule
	}

	st := s.draft.SurgeType
	if st == "" {
		st = models.SurgeTypeFixed
	}
	return repository.CreateInput{
		Name:        s.draft.Name,
		SurgeReason: s.draft.SurgeReason,
		SurgeType:   st,
		SurgeValue:  value,
		Geometry:    *s.geom,
		AreaSizeKm2: geometry.EstimateArea(*s.geom),
		StartTime:   *s.draft.StartTime,
		EndTime:     *s.draft.EndTime,
	}, nil
}

// Create validates the form, submits the creation payload, and on success
// resets the form and working geometry so a new definition can begin. On
// any failure the form state is preserved for correction and resubmission.
func (s *Session) Create(ctx context.Context) (*models.SurgeArea, error) {
	s.mu.Lock()
	in, err := s.validateLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	area, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.draft = Draft{}
	s.geom = nil
	s.ring = nil
	s.mu.Unlock()
	return area, nil
}

// acquireRow marks a row busy for the duration of one in-flight
// operation. A second concurrent operation on the same row is rejected;
// other rows are unaffected.
func (s *Session) acquireRow(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[id] {
		return ErrRowBusy
	}
	s.busy[id] = true
	return nil
}

func (s *Session) releaseRow(id string) {
	s.mu.Lock()
	delete(s.busy, id)
	s.mu.Unlock()
}

// RowBusy reports whether an operation is in flight for the given row.
func (s *Session) RowBusy(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[id]
}

// Toggle flips a zone's administrative flag. The row's prior state stays
// visible until the store confirms; only then is the fetched page
// reconciled in place.
func (s *Session) Toggle(ctx context.Context, id string) (bool, error) {
	if err := s.acquireRow(id); err != nil {
		return false, err
	}
	defer s.releaseRow(id)

	newActive, err := s.store.Toggle(ctx, id)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.havePage {
		s.page = s.page.ApplyToggle(id, newActive)
	}
	s.mu.Unlock()
	return newActive, nil
}

// Delete removes a zone permanently. It requires explicit confirmation
// and reconciles the fetched page only after the store confirms.
func (s *Session) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := s.acquireRow(id); err != nil {
		return err
	}
	defer s.releaseRow(id)

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	if s.havePage {
		s.page = s.page.ApplyDelete(id, s.req.PageSize)
		s.req.Page = s.page.CurrentPage
	}
	s.mu.Unlock()
	return nil
}

// Refresh fetches the current page. Responses superseded by a newer
// Refresh are discarded on arrival (last-request-wins); the underlying
// transport call is not cancelled.
func (s *Session) Refresh(ctx context.Context) (query.Page, error) {
	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	req := s.req
	s.mu.Unlock()

	page, err := s.store.List(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.fetchSeq {
		return query.Page{}, ErrStaleFetch
	}
	if err != nil {
		return query.Page{}, err
	}
	s.page = page
	s.havePage = true
	s.req.Page = page.CurrentPage
	return page, nil
}

// Page returns the last successfully fetched page.
func (s *Session) Page() (query.Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page, s.havePage
}

// Counters recomputes dashboard counters over the current page for the
// given clock reading; nothing is cached across calls.
func (s *Session) Counters(now time.Time) models.Counters {
	s.mu.Lock()
	items := s.page.Items
	s.mu.Unlock()
	return models.CountStatuses(items, now)
}

// SetPageNumber clamps navigation into the known page range; navigating
// beyond it is a no-op on the effective page.
func (s *Session) SetPageNumber(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.havePage {
		n = query.ClampPage(n, s.page.TotalPages)
	} else if n < 1 {
		n = 1
	}
	s.req.Page = n
}

func (s *Session) SetSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.req.Search = text
	s.req.Page = 1
}

func (s *Session) SetStatusFilter(f query.StatusFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.req.Status = f
	s.req.Page = 1
}

func (s *Session) SetTypeFilter(f query.TypeFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.req.Type = f
	s.req.Page = 1
}

// ToggleSort applies the column-header rule: same key flips direction, a
// new key resets to ascending. Sorting returns to the first page.
func (s *Session) ToggleSort(key query.SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort.Toggle(key)
	s.req.SortKey = s.sort.Key
	s.req.SortDir = s.sort.Dir
	s.req.Page = 1
}

// Request returns the list request that the next Refresh will issue.
func (s *Session) Request() query.ListRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.req
}
