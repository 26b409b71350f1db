package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"qroute/internal/app/model"
	"qroute/internal/app/normalize"
	"qroute/internal/app/safety"
)

const (
	selectColumns      = "id,name,destination,enabled,redirect_type,fallback_url,open_in_new_tab,created_at,updated_at"
	defaultHTTPTimeout = 10 * time.Second
)

// RESTConfig configures the REST-backed route repository. The adapter only
// exists when both BaseURL and APIKey are set; callers check that before
// constructing one.
type RESTConfig struct {
	BaseURL string
	APIKey  string
	Table   string

	// DefaultDestination replaces a corrupted destination column on read so
	// a bad remote row can never break a redirect.
	DefaultDestination string
	// Policy screens rehydrated rows the same way API writes are screened.
	Policy safety.Policy

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// restRouteRepository talks to a PostgREST-style tabular store: one table of
// routes reached via authenticated REST calls with query-string filters.
type restRouteRepository struct {
	base    string
	apiKey  string
	table   string
	defDest string
	policy  safety.Policy
	client  *http.Client
}

// NewRESTRouteRepository returns a RouteRepository backed by the remote table.
func NewRESTRouteRepository(cfg RESTConfig) RouteRepository {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	table := cfg.Table
	if table == "" {
		table = "qr_routes"
	}
	return &restRouteRepository{
		base:    cfg.BaseURL,
		apiKey:  cfg.APIKey,
		table:   table,
		defDest: cfg.DefaultDestination,
		policy:  cfg.Policy,
		client:  client,
	}
}

func (r *restRouteRepository) List(ctx context.Context, limit int) ([]model.QrRoute, error) {
	q := url.Values{}
	q.Set("select", selectColumns)
	q.Set("order", "updated_at.desc")
	q.Set("limit", strconv.Itoa(limit))

	body, err := r.do(ctx, http.MethodGet, q, nil)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}

	var rows []routeRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("list routes: decode response: %w", err)
	}

	routes := make([]model.QrRoute, 0, len(rows))
	for _, row := range rows {
		routes = append(routes, r.fromRow(row))
	}
	return routes, nil
}

func (r *restRouteRepository) GetByID(ctx context.Context, id string) (*model.QrRoute, error) {
	q := url.Values{}
	q.Set("select", selectColumns)
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	body, err := r.do(ctx, http.MethodGet, q, nil)
	if err != nil {
		return nil, fmt.Errorf("get route %s: %w", id, err)
	}

	var rows []routeRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("get route %s: decode response: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	route := r.fromRow(rows[0])
	return &route, nil
}

func (r *restRouteRepository) Upsert(ctx context.Context, route model.QrRoute) (model.QrRoute, error) {
	q := url.Values{}
	q.Set("on_conflict", "id")

	payload, err := json.Marshal([]routeRow{toRow(route)})
	if err != nil {
		return model.QrRoute{}, fmt.Errorf("upsert route %s: encode row: %w", route.ID, err)
	}

	body, err := r.do(ctx, http.MethodPost, q, payload)
	if err != nil {
		return model.QrRoute{}, fmt.Errorf("upsert route %s: %w", route.ID, err)
	}

	var rows []routeRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return model.QrRoute{}, fmt.Errorf("upsert route %s: decode response: %w", route.ID, err)
	}
	if len(rows) == 0 {
		return model.QrRoute{}, fmt.Errorf("upsert route %s: backend returned no representation", route.ID)
	}
	// The returned record reflects what the backend persisted, not what was
	// requested.
	return r.fromRow(rows[0]), nil
}

func (r *restRouteRepository) do(ctx context.Context, method string, query url.Values, body []byte) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", r.base, url.PathEscape(r.table), query.Encode())

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "resolution=merge-duplicates,return=representation")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("backend status %d: %s", resp.StatusCode, truncateBody(data))
	}
	return data, nil
}

func truncateBody(data []byte) string {
	const max = 256
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}

// routeRow is the snake_case wire shape of one backend row. Nullable columns
// use pointers so absence survives the round-trip.
type routeRow struct {
	ID           string     `json:"id"`
	Name         *string    `json:"name"`
	Destination  *string    `json:"destination"`
	Enabled      *bool      `json:"enabled"`
	RedirectType *string    `json:"redirect_type"`
	FallbackURL  *string    `json:"fallback_url"`
	OpenInNewTab *bool      `json:"open_in_new_tab"`
	CreatedAt    *time.Time `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

func toRow(route model.QrRoute) routeRow {
	name := route.Name
	dest := route.Destination
	enabled := route.Enabled
	rt := route.RedirectType
	fb := route.FallbackURL
	newTab := route.OpenInNewTab
	created := route.CreatedAt
	updated := route.UpdatedAt
	return routeRow{
		ID:           route.ID,
		Name:         &name,
		Destination:  &dest,
		Enabled:      &enabled,
		RedirectType: &rt,
		FallbackURL:  &fb,
		OpenInNewTab: &newTab,
		CreatedAt:    &created,
		UpdatedAt:    &updated,
	}
}

// fromRow rehydrates a wire row through the normalizer so every record in
// circulation is safety-validated. A corrupted destination or fallback column
// is substituted rather than surfaced: reads from the backend must always
// produce a usable record.
func (r *restRouteRepository) fromRow(row routeRow) model.QrRoute {
	payload := model.RoutePayload{
		Name:         row.Name,
		Destination:  row.Destination,
		Enabled:      row.Enabled,
		RedirectType: row.RedirectType,
		FallbackURL:  row.FallbackURL,
		OpenInNewTab: row.OpenInNewTab,
	}

	now := time.Now().UTC()
	route, err := normalize.Route(row.ID, payload, nil, r.policy, now)
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) && ve.Field == "fallbackUrl" {
			empty := ""
			payload.FallbackURL = &empty
		} else {
			defDest := r.defDest
			payload.Destination = &defDest
		}
		route, err = normalize.Route(row.ID, payload, nil, r.policy, now)
		if err != nil {
			empty := ""
			defDest := r.defDest
			payload.FallbackURL = &empty
			payload.Destination = &defDest
			route, _ = normalize.Route(row.ID, payload, nil, r.policy, now)
		}
	}

	if row.CreatedAt != nil {
		route.CreatedAt = *row.CreatedAt
	}
	if row.UpdatedAt != nil {
		route.UpdatedAt = *row.UpdatedAt
	}
	return route
}
