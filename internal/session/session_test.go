package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mealdash/surge-areas/internal/models"
	"github.com/mealdash/surge-areas/internal/query"
	"github.com/mealdash/surge-areas/internal/repository"
)

// mockStore implements repository.SurgeAreaStore with hooks for blocking
// and failing individual operations.
type mockStore struct {
	mu      sync.Mutex
	areas   []models.SurgeArea
	created []repository.CreateInput

	listFn   func(req query.ListRequest) (query.Page, error)
	toggleGate chan struct{} // when set, Toggle blocks until the gate closes
	toggleErr  error
	deleteErr  error
}

func (m *mockStore) List(ctx context.Context, req query.ListRequest) (query.Page, error) {
	if m.listFn != nil {
		return m.listFn(req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]models.SurgeArea, len(m.areas))
	copy(items, m.areas)
	return query.Page{
		Items:       items,
		Total:       len(items),
		TotalPages:  query.TotalPages(len(items), req.PageSize),
		CurrentPage: query.ClampPage(req.Page, query.TotalPages(len(items), req.PageSize)),
	}, nil
}

func (m *mockStore) Create(ctx context.Context, in repository.CreateInput) (*models.SurgeArea, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, in)
	area := models.SurgeArea{
		ID:          "created-1",
		Name:        in.Name,
		SurgeReason: in.SurgeReason,
		SurgeType:   in.SurgeType,
		SurgeValue:  in.SurgeValue,
		Geometry:    in.Geometry,
		AreaSizeKm2: in.AreaSizeKm2,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	m.areas = append(m.areas, area)
	return &area, nil
}

func (m *mockStore) Toggle(ctx context.Context, id string) (bool, error) {
	if m.toggleGate != nil {
		<-m.toggleGate
	}
	if m.toggleErr != nil {
		return false, m.toggleErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.areas {
		if m.areas[i].ID == id {
			m.areas[i].IsActive = !m.areas[i].IsActive
			return m.areas[i].IsActive, nil
		}
	}
	return false, repository.ErrNotFound
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.areas {
		if m.areas[i].ID == id {
			m.areas = append(m.areas[:i], m.areas[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func validDraft() Draft {
	start := time.Now().Add(time.Hour)
	end := start.Add(2 * time.Hour)
	return Draft{
		Name:        "Airport North",
		SurgeReason: "Flight Schedule",
		SurgeType:   models.SurgeTypeFixed,
		SurgeValue:  "1.5",
		StartTime:   &start,
		EndTime:     &end,
	}
}

func TestCreate_ValidationOrder(t *testing.T) {
	store := &mockStore{}
	ctx := context.Background()

	// No geometry but an otherwise valid form: geometry is checked first.
	s := New(store, 10)
	s.SetDraft(validDraft())
	if _, err := s.Create(ctx); !errors.Is(err, ErrMissingGeometry) {
		t.Fatalf("expected ErrMissingGeometry, got %v", err)
	}

	if err := s.SetCircle(models.Point{76.32, 9.995}, 0.5); err != nil {
		t.Fatalf("SetCircle failed: %v", err)
	}

	d := validDraft()
	d.Name = ""
	s.SetDraft(d)
	if _, err := s.Create(ctx); !errors.Is(err, ErrMissingName) {
		t.Fatalf("expected ErrMissingName, got %v", err)
	}

	d = validDraft()
	d.SurgeReason = ""
	s.SetDraft(d)
	if _, err := s.Create(ctx); !errors.Is(err, ErrMissingReason) {
		t.Fatalf("expected ErrMissingReason, got %v", err)
	}

	for _, bad := range []string{"", "abc", "0", "-2"} {
		d = validDraft()
		d.SurgeValue = bad
		s.SetDraft(d)
		if _, err := s.Create(ctx); !errors.Is(err, ErrInvalidSurgeValue) {
			t.Fatalf("surge value %q: expected ErrInvalidSurgeValue, got %v", bad, err)
		}
	}

	d = validDraft()
	d.EndTime = nil
	s.SetDraft(d)
	if _, err := s.Create(ctx); !errors.Is(err, ErrMissingSchedule) {
		t.Fatalf("expected ErrMissingSchedule, got %v", err)
	}

	// InvalidSchedule fires only once every earlier check passes.
	d = validDraft()
	end := d.StartTime.Add(-time.Minute)
	d.EndTime = &end
	s.SetDraft(d)
	if _, err := s.Create(ctx); !errors.Is(err, ErrInvalidSchedule) {
		t.Fatalf("expected ErrInvalidSchedule, got %v", err)
	}

	// end == start is also invalid.
	d = validDraft()
	d.EndTime = d.StartTime
	s.SetDraft(d)
	if _, err := s.Create(ctx); !errors.Is(err, ErrInvalidSchedule) {
		t.Fatalf("expected ErrInvalidSchedule for end==start, got %v", err)
	}

	if len(store.created) != 0 {
		t.Errorf("validation failures must never reach the store, got %d submissions", len(store.created))
	}
}

func TestCreate_SubmitsComputedAreaAndResetsForm(t *testing.T) {
	store := &mockStore{}
	s := New(store, 10)
	s.SetCircle(models.Point{76.32, 9.995}, 0.5)
	s.SetDraft(validDraft())

	area, err := s.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if area.AreaSizeKm2 != 0.79 {
		t.Errorf("expected computed area 0.79, got %v", area.AreaSizeKm2)
	}
	if len(store.created) != 1 || store.created[0].AreaSizeKm2 != 0.79 {
		t.Errorf("expected payload with areaSizeKm2=0.79, got %+v", store.created)
	}
	if store.created[0].SurgeValue != 1.5 {
		t.Errorf("expected parsed surge value 1.5, got %v", store.created[0].SurgeValue)
	}

	// Success clears the form and geometry for the next definition.
	if s.Draft() != (Draft{}) {
		t.Errorf("expected empty draft after success, got %+v", s.Draft())
	}
	if s.WorkingRing() != nil {
		t.Error("expected working geometry cleared after success")
	}
}

func TestCreate_FailurePreservesForm(t *testing.T) {
	store := &mockStore{}
	s := New(store, 10)
	s.SetCircle(models.Point{76.32, 9.995}, 0.5)
	d := validDraft()
	s.SetDraft(d)

	// Validation failure: everything stays.
	bad := d
	bad.Name = ""
	s.SetDraft(bad)
	if _, err := s.Create(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}
	if s.Draft().SurgeValue != "1.5" {
		t.Error("form must be preserved after a validation failure")
	}
	if s.WorkingRing() == nil {
		t.Error("geometry must be preserved after a validation failure")
	}
}

func TestSetGeometry_DiscardsPrevious(t *testing.T) {
	s := New(&mockStore{}, 10)

	if err := s.SetCircle(models.Point{76.32, 9.995}, 0.5); err != nil {
		t.Fatalf("SetCircle failed: %v", err)
	}
	if n := len(s.WorkingRing()); n != 65 {
		t.Fatalf("expected 65-point circle ring, got %d", n)
	}

	ring := []models.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	if err := s.SetPolygon(ring); err != nil {
		t.Fatalf("SetPolygon failed: %v", err)
	}
	if n := len(s.WorkingRing()); n != 5 {
		t.Errorf("expected the polygon ring to replace the circle, got %d points", n)
	}

	// Re-centering a circle rebuilds from scratch.
	if err := s.SetCircle(models.Point{0, 0}, 1); err != nil {
		t.Fatalf("SetCircle failed: %v", err)
	}
	if got := s.AreaEstimate(); got != 3.14 {
		t.Errorf("expected area of the new circle (3.14), got %v", got)
	}
}

func TestSetGeometry_Invalid(t *testing.T) {
	s := New(&mockStore{}, 10)
	if err := s.SetCircle(models.Point{0, 0}, 0); !errors.Is(err, ErrInvalidCircle) {
		t.Errorf("expected ErrInvalidCircle, got %v", err)
	}
	open := []models.Point{{0, 0}, {1, 0}, {0, 1}}
	if err := s.SetPolygon(open); !errors.Is(err, ErrInvalidRing) {
		t.Errorf("expected ErrInvalidRing, got %v", err)
	}
}

func TestToggle_OptimisticReconciliation(t *testing.T) {
	store := &mockStore{areas: []models.SurgeArea{
		{ID: "a", IsActive: false},
		{ID: "b", IsActive: true},
	}}
	s := New(store, 10)
	ctx := context.Background()

	if _, err := s.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	active, err := s.Toggle(ctx, "a")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !active {
		t.Error("expected toggle to enable the row")
	}

	page, _ := s.Page()
	if !page.Items[0].IsActive {
		t.Error("expected the fetched page reconciled in place, no refetch")
	}
	if page.Items[1].IsActive != true {
		t.Error("other rows must be untouched")
	}
}

func TestToggle_BusyGuard(t *testing.T) {
	gate := make(chan struct{})
	store := &mockStore{
		areas:      []models.SurgeArea{{ID: "a"}, {ID: "b"}},
		toggleGate: gate,
	}
	s := New(store, 10)
	ctx := context.Background()
	s.Refresh(ctx)

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Toggle(ctx, "a")
		firstDone <- err
	}()

	// Wait for the first toggle to be in flight.
	deadline := time.After(2 * time.Second)
	for !s.RowBusy("a") {
		select {
		case <-deadline:
			t.Fatal("first toggle never became busy")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// A second toggle on the same row is rejected while in flight.
	if _, err := s.Toggle(ctx, "a"); !errors.Is(err, ErrRowBusy) {
		t.Errorf("expected ErrRowBusy for the same row, got %v", err)
	}

	// A different row proceeds independently.
	rowBDone := make(chan error, 1)
	go func() {
		_, err := s.Toggle(ctx, "b")
		rowBDone <- err
	}()

	close(gate)

	if err := <-firstDone; err != nil {
		t.Errorf("first toggle failed: %v", err)
	}
	if err := <-rowBDone; err != nil {
		t.Errorf("independent row toggle failed: %v", err)
	}

	// The busy flag is released afterwards, so the row can be toggled again.
	store.toggleGate = nil
	if _, err := s.Toggle(ctx, "a"); err != nil {
		t.Errorf("expected row released after completion, got %v", err)
	}
}

func TestToggle_FailureLeavesPageUntouched(t *testing.T) {
	store := &mockStore{
		areas:     []models.SurgeArea{{ID: "a", IsActive: false}},
		toggleErr: errors.New("boom"),
	}
	s := New(store, 10)
	ctx := context.Background()
	s.Refresh(ctx)

	if _, err := s.Toggle(ctx, "a"); err == nil {
		t.Fatal("expected toggle error")
	}
	page, _ := s.Page()
	if page.Items[0].IsActive {
		t.Error("failed toggle must not flip the visible state")
	}
	if s.RowBusy("a") {
		t.Error("busy flag must be released after a failure")
	}
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	store := &mockStore{areas: []models.SurgeArea{{ID: "a"}}}
	s := New(store, 10)
	ctx := context.Background()
	s.Refresh(ctx)

	if err := s.Delete(ctx, "a", false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if page, _ := s.Page(); len(page.Items) != 1 {
		t.Error("unconfirmed delete must not touch the page")
	}

	if err := s.Delete(ctx, "a", true); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	page, _ := s.Page()
	if len(page.Items) != 0 || page.Total != 0 {
		t.Errorf("expected row removed and total decremented, got %+v", page)
	}
}

func TestRefresh_LastRequestWins(t *testing.T) {
	var (
		mu       sync.Mutex
		pending  []chan query.Page
	)
	store := &mockStore{}
	store.listFn = func(req query.ListRequest) (query.Page, error) {
		ch := make(chan query.Page)
		mu.Lock()
		pending = append(pending, ch)
		mu.Unlock()
		return <-ch, nil
	}

	s := New(store, 10)
	ctx := context.Background()

	type result struct {
		page query.Page
		err  error
	}
	first := make(chan result, 1)
	go func() {
		p, err := s.Refresh(ctx)
		first <- result{p, err}
	}()

	// Wait until the first fetch is in flight, then supersede it.
	waitPending(t, &mu, &pending, 1)
	second := make(chan result, 1)
	go func() {
		p, err := s.Refresh(ctx)
		second <- result{p, err}
	}()
	waitPending(t, &mu, &pending, 2)

	// Release the newer fetch first, then the stale one.
	fresh := query.Page{Total: 2, TotalPages: 1, CurrentPage: 1, Items: []models.SurgeArea{{ID: "x"}, {ID: "y"}}}
	stale := query.Page{Total: 9, TotalPages: 1, CurrentPage: 1, Items: []models.SurgeArea{{ID: "old"}}}
	mu.Lock()
	pending[1] <- fresh
	mu.Unlock()

	r2 := <-second
	if r2.err != nil {
		t.Fatalf("newer refresh failed: %v", r2.err)
	}

	mu.Lock()
	pending[0] <- stale
	mu.Unlock()

	r1 := <-first
	if !errors.Is(r1.err, ErrStaleFetch) {
		t.Fatalf("expected stale response discarded, got %v", r1.err)
	}

	page, ok := s.Page()
	if !ok || page.Total != 2 {
		t.Errorf("expected the newer page installed, got %+v", page)
	}
}

func waitPending(t *testing.T, mu *sync.Mutex, pending *[]chan query.Page, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		got := len(*pending)
		mu.Unlock()
		if got >= n {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d in-flight fetches", n)
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestCounters_RecomputedPerCall(t *testing.T) {
	now := time.Now()
	store := &mockStore{areas: []models.SurgeArea{
		{ID: "a", IsActive: true, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)},
	}}
	s := New(store, 10)
	ctx := context.Background()
	s.Refresh(ctx)

	if c := s.Counters(now); c.ActiveNow != 1 {
		t.Fatalf("expected 1 active now, got %d", c.ActiveNow)
	}

	// Flipping the administrative flag removes the zone from the counter
	// without changing its time-derived status.
	if _, err := s.Toggle(ctx, "a"); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	c := s.Counters(now)
	if c.ActiveNow != 0 {
		t.Errorf("expected 0 active now after disable, got %d", c.ActiveNow)
	}
	page, _ := s.Page()
	if page.Items[0].LiveStatus(now) != models.LiveStatusActiveNow {
		t.Error("live status must be unaffected by the administrative flag")
	}
}

func TestSortAndPagingState(t *testing.T) {
	s := New(&mockStore{}, 10)

	s.ToggleSort(query.SortByName)
	req := s.Request()
	if req.SortKey != query.SortByName || req.SortDir != query.SortAsc {
		t.Errorf("new sort key should reset ascending, got %+v", req)
	}

	s.ToggleSort(query.SortByName)
	if req = s.Request(); req.SortDir != query.SortDesc {
		t.Errorf("same key should flip direction, got %+v", req)
	}

	s.SetSearch("airport")
	if req = s.Request(); req.Search != "airport" || req.Page != 1 {
		t.Errorf("search should reset to page 1, got %+v", req)
	}

	s.SetPageNumber(-5)
	if req = s.Request(); req.Page != 1 {
		t.Errorf("negative page should clamp to 1, got %d", req.Page)
	}
}
