package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mealdash/surge-areas/internal/models"
	"github.com/mealdash/surge-areas/internal/query"
)

var ErrNotFound = errors.New("surge area not found")

// CreateInput is a validated creation payload. The store assigns the id
// and creation timestamp; new areas start administratively enabled.
type CreateInput struct {
	Name        string
	SurgeReason string
	SurgeType   models.SurgeType
	SurgeValue  float64
	Geometry    models.Geometry
	AreaSizeKm2 float64
	StartTime   time.Time
	EndTime     time.Time
}

type SurgeAreaStore interface {
	List(ctx context.Context, req query.ListRequest) (query.Page, error)
	Create(ctx context.Context, in CreateInput) (*models.SurgeArea, error)
	Toggle(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// AuditEvent records one lifecycle mutation for the audit trail.
type AuditEvent struct {
	ID        string
	Kind      string // created | toggled | deleted
	AreaID    string
	AreaName  string
	Detail    string
	CreatedAt time.Time
}

type AuditStore interface {
	AddAuditEvent(ctx context.Context, ev *AuditEvent) error
	ListAuditEvents(ctx context.Context, limit int) ([]AuditEvent, error)
}
