package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mealdash/surge-areas/internal/models"
	"github.com/mealdash/surge-areas/internal/query"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS surge_areas (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			surge_reason TEXT NOT NULL,
			surge_type TEXT NOT NULL,
			surge_value REAL NOT NULL,
			geometry TEXT NOT NULL,
			area_size_km2 REAL NOT NULL,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS audit_events (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			area_id TEXT NOT NULL,
			area_name TEXT,
			detail TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_surge_areas_start_time ON surge_areas(start_time);
		CREATE INDEX IF NOT EXISTS idx_surge_areas_is_active ON surge_areas(is_active);
		CREATE INDEX IF NOT EXISTS idx_audit_events_area_id ON audit_events(area_id);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) Create(ctx context.Context, in CreateInput) (*models.SurgeArea, error) {
	area := &models.SurgeArea{
		ID:          uuid.NewString(),
		Name:        in.Name,
		SurgeReason: in.SurgeReason,
		SurgeType:   in.SurgeType,
		SurgeValue:  in.SurgeValue,
		Geometry:    in.Geometry,
		AreaSizeKm2: in.AreaSizeKm2,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}

	geom, err := json.Marshal(area.Geometry)
	if err != nil {
		return nil, fmt.Errorf("error encoding geometry: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO surge_areas
			(id, name, surge_reason, surge_type, surge_value, geometry, area_size_km2, start_time, end_time, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		area.ID, area.Name, area.SurgeReason, string(area.SurgeType), area.SurgeValue,
		string(geom), area.AreaSizeKm2, area.StartTime, area.EndTime, area.IsActive, area.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error inserting surge area: %w", err)
	}

	return area, nil
}

func (s *SQLiteDB) List(ctx context.Context, req query.ListRequest) (query.Page, error) {
	where := " WHERE 1=1"
	args := []any{}

	if req.Search != "" {
		where += " AND name LIKE ?"
		args = append(args, "%"+req.Search+"%")
	}
	switch req.Status {
	case query.StatusActive:
		where += " AND is_active = 1"
	case query.StatusInactive:
		where += " AND is_active = 0"
	}
	if req.Type == query.TypeFixed || req.Type == query.TypeDynamic {
		where += " AND surge_type = ?"
		args = append(args, string(req.Type))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM surge_areas"+where, args...).Scan(&total); err != nil {
		return query.Page{}, fmt.Errorf("error counting surge areas: %w", err)
	}

	totalPages := query.TotalPages(total, req.PageSize)
	page := query.ClampPage(req.Page, totalPages)

	// created_at/id tiebreaker keeps equal-key ordering stable across
	// repeated fetches.
	orderBy := " ORDER BY " + sortColumn(req.SortKey) + " " + sortDirection(req.SortDir) + ", created_at, id"

	q := "SELECT id, name, surge_reason, surge_type, surge_value, geometry, area_size_km2, start_time, end_time, is_active, created_at FROM surge_areas" +
		where + orderBy + " LIMIT ? OFFSET ?"
	args = append(args, req.PageSize, (page-1)*req.PageSize)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return query.Page{}, fmt.Errorf("error listing surge areas: %w", err)
	}
	defer rows.Close()

	items := make([]models.SurgeArea, 0, req.PageSize)
	for rows.Next() {
		var (
			a        models.SurgeArea
			geom     string
			st       string
			isActive int
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.SurgeReason, &st, &a.SurgeValue, &geom,
			&a.AreaSizeKm2, &a.StartTime, &a.EndTime, &isActive, &a.CreatedAt); err != nil {
			return query.Page{}, fmt.Errorf("error scanning surge area: %w", err)
		}
		a.SurgeType = models.SurgeType(st)
		a.IsActive = isActive == 1
		if err := json.Unmarshal([]byte(geom), &a.Geometry); err != nil {
			return query.Page{}, fmt.Errorf("error decoding geometry for %s: %w", a.ID, err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return query.Page{}, fmt.Errorf("error iterating surge areas: %w", err)
	}

	return query.Page{
		Items:       items,
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: page,
	}, nil
}

func (s *SQLiteDB) Toggle(ctx context.Context, id string) (bool, error) {
	var isActive int
	err := s.db.QueryRowContext(ctx,
		"UPDATE surge_areas SET is_active = 1 - is_active WHERE id = ? RETURNING is_active", id,
	).Scan(&isActive)
	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("error toggling surge area: %w", err)
	}
	return isActive == 1, nil
}

func (s *SQLiteDB) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM surge_areas WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("error deleting surge area: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteDB) AddAuditEvent(ctx context.Context, ev *AuditEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, kind, area_id, area_name, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Kind, ev.AreaID, ev.AreaName, ev.Detail, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting audit event: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ListAuditEvents(ctx context.Context, limit int) ([]AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, kind, area_id, area_name, detail, created_at FROM audit_events ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("error listing audit events: %w", err)
	}
	defer rows.Close()

	events := []AuditEvent{}
	for rows.Next() {
		var ev AuditEvent
		if err := rows.Scan(&ev.ID, &ev.Kind, &ev.AreaID, &ev.AreaName, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning audit event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func sortColumn(key query.SortKey) string {
	switch key {
	case query.SortByName:
		return "name COLLATE NOCASE"
	case query.SortByType:
		return "surge_type"
	case query.SortByValue:
		return "surge_value"
	default:
		return "start_time"
	}
}

func sortDirection(dir query.SortDirection) string {
	if dir == query.SortDesc {
		return "DESC"
	}
	return "ASC"
}
