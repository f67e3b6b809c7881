// Package client implements repository.SurgeAreaStore over HTTP against a
// remote surge-area service speaking the success/data/message envelope.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mealdash/surge-areas/internal/models"
	"github.com/mealdash/surge-areas/internal/query"
	"github.com/mealdash/surge-areas/internal/repository"
)

// ErrLogicalFailure marks a well-formed 2xx response whose envelope
// signals failure (success=false or missing data), as opposed to a
// transport-level error.
var ErrLogicalFailure = errors.New("store reported failure")

const genericFailureMessage = "the store rejected the operation"

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// do issues the request and decodes the envelope, separating transport
// errors (connectivity, non-2xx) from logical failures.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		if json.NewDecoder(resp.Body).Decode(&env) == nil && env.Message != "" {
			return fmt.Errorf("unexpected status code: %d - %s", resp.StatusCode, env.Message)
		}
		return fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	if !env.Success || len(env.Data) == 0 || string(env.Data) == "null" {
		msg := env.Message
		if msg == "" {
			msg = genericFailureMessage
		}
		return fmt.Errorf("%w: %s", ErrLogicalFailure, msg)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("error decoding response data: %w", err)
		}
	}
	return nil
}

func (c *Client) List(ctx context.Context, req query.ListRequest) (query.Page, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(req.Page))
	params.Set("page_size", strconv.Itoa(req.PageSize))
	if req.Search != "" {
		params.Set("search", req.Search)
	}
	params.Set("status", string(req.Status))
	params.Set("type", string(req.Type))
	params.Set("sort_by", string(req.SortKey))
	params.Set("sort_dir", string(req.SortDir))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/surge-areas?"+params.Encode(), nil)
	if err != nil {
		return query.Page{}, fmt.Errorf("error creating request: %w", err)
	}

	var page query.Page
	if err := c.do(httpReq, &page); err != nil {
		return query.Page{}, err
	}
	return page, nil
}

// createPayload is the creation wire shape. Geometry is flattened: either
// type=Polygon with a nested GeoJSON-style area, or type=Circle with
// center+radius (the authoritative circle representation).
type createPayload struct {
	Name        string        `json:"name"`
	SurgeReason string        `json:"surgeReason"`
	SurgeType   string        `json:"surgeType"` // fixed | percentage
	SurgeValue  float64       `json:"surgeValue"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
	AreaSizeKm2 float64       `json:"areaSizeKm2"`
	Type        string        `json:"type"` // Polygon | Circle
	Area        *polygonArea  `json:"area,omitempty"`
	Center      *models.Point `json:"center,omitempty"`
	Radius      float64       `json:"radius,omitempty"`
}

type polygonArea struct {
	Type        string           `json:"type"`
	Coordinates [][]models.Point `json:"coordinates"`
}

func (c *Client) Create(ctx context.Context, in repository.CreateInput) (*models.SurgeArea, error) {
	payload := createPayload{
		Name:        in.Name,
		SurgeReason: in.SurgeReason,
		SurgeType:   in.SurgeType.PayloadValue(),
		SurgeValue:  in.SurgeValue,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		AreaSizeKm2: in.AreaSizeKm2,
	}
	switch in.Geometry.Kind {
	case models.GeometryKindPolygon:
		payload.Type = string(models.GeometryKindPolygon)
		payload.Area = &polygonArea{
			Type:        "Polygon",
			Coordinates: [][]models.Point{in.Geometry.Ring},
		}
	case models.GeometryKindCircle:
		payload.Type = string(models.GeometryKindCircle)
		center := in.Geometry.Center
		payload.Center = &center
		payload.Radius = in.Geometry.RadiusKm
	default:
		return nil, fmt.Errorf("unknown geometry kind: %q", in.Geometry.Kind)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error encoding payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/surge-areas", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var area models.SurgeArea
	if err := c.do(httpReq, &area); err != nil {
		return nil, err
	}
	return &area, nil
}

func (c *Client) Toggle(ctx context.Context, id string) (bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		c.baseURL+"/api/surge-areas/"+url.PathEscape(id)+"/toggle", nil)
	if err != nil {
		return false, fmt.Errorf("error creating request: %w", err)
	}

	var data struct {
		IsActive bool `json:"isActive"`
	}
	if err := c.do(httpReq, &data); err != nil {
		return false, err
	}
	return data.IsActive, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/surge-areas/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	return c.do(httpReq, nil)
}

// Counters fetches the dashboard counters from the remote service.
func (c *Client) Counters(ctx context.Context) (models.Counters, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/surge-areas/stats", nil)
	if err != nil {
		return models.Counters{}, fmt.Errorf("error creating request: %w", err)
	}

	var counters models.Counters
	if err := c.do(httpReq, &counters); err != nil {
		return models.Counters{}, err
	}
	return counters, nil
}
