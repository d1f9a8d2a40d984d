package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"courier-portal/internal/core/config"
	"courier-portal/internal/core/httpclient"
	"courier-portal/internal/core/shipping"
	"courier-portal/internal/features/shipments/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RestBackend talks to a PostgREST style API exposing users, packages and
// events tables under /rest/v1.
type RestBackend struct {
	// client carries the api key headers on every request.
	client *http.Client
	// baseURL is the API root without trailing slash.
	baseURL string
}

type userRow struct {
	ID           string             `json:"id"`
	Email        string             `json:"email"`
	PasswordHash string             `json:"password_hash"`
	Name         string             `json:"name"`
	UserType     domain.UserType    `json:"user_type"`
	Preferences  domain.Preferences `json:"preferences"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	LastLogin    *time.Time         `json:"last_login"`
}

type packageRow struct {
	ID                string          `json:"id"`
	TrackingNumber    string          `json:"tracking_number"`
	UserID            string          `json:"user_id"`
	Status            shipping.Status `json:"status"`
	Service           string          `json:"service"`
	Weight            float64         `json:"weight"`
	Dimensions        string          `json:"dimensions"`
	Sender            domain.Address  `json:"sender"`
	Recipient         domain.Address  `json:"recipient"`
	Cost              decimal.Decimal `json:"cost"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery"`
	ActualDelivery    *time.Time      `json:"actual_delivery"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type eventRow struct {
	PackageID   string          `json:"package_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Status      shipping.Status `json:"status"`
	Location    string          `json:"location"`
	Description string          `json:"description"`
}

// NewRestBackend creates a backend authenticating with cfg.Key.
func NewRestBackend(cfg config.ExternalConfig) *RestBackend {
	headers := http.Header{}
	headers.Set("apikey", cfg.Key)
	headers.Set("Authorization", "Bearer "+cfg.Key)
	headers.Set("Accept", "application/json")

	return &RestBackend{
		client:  httpclient.NewClient(time.Duration(cfg.TimeoutSeconds)*time.Second, httpclient.WithHeaders(headers)),
		baseURL: strings.TrimRight(cfg.URL, "/"),
	}
}

func (b *RestBackend) Name() string { return "rest" }

func (b *RestBackend) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

// HealthCheck verifies the API is reachable and the key is accepted.
func (b *RestBackend) HealthCheck(ctx context.Context) error {
	var rows []userRow
	if err := b.do(ctx, http.MethodGet, "users", url.Values{"select": {"id"}, "limit": {"1"}}, nil, &rows); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

func (b *RestBackend) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return b.findUser(ctx, "email", strings.ToLower(email))
}

func (b *RestBackend) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	return b.findUser(ctx, "id", id)
}

func (b *RestBackend) findUser(ctx context.Context, column, value string) (*domain.User, error) {
	var rows []userRow
	q := url.Values{column: {"eq." + value}, "limit": {"1"}}
	if err := b.do(ctx, http.MethodGet, "users", q, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toDomain(), nil
}

func (b *RestBackend) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := userRow{
		ID:           user.ID,
		Email:        strings.ToLower(user.Email),
		PasswordHash: user.PasswordHash,
		Name:         user.Name,
		UserType:     user.UserType,
		Preferences:  user.Preferences,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	if row.ID == "" {
		row.ID = uuid.Must(uuid.NewV7()).String()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
		row.UpdatedAt = row.CreatedAt
	}

	var rows []userRow
	if err := b.do(ctx, http.MethodPost, "users", nil, row, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return row.toDomain(), nil
	}
	return rows[0].toDomain(), nil
}

func (b *RestBackend) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	body := map[string]time.Time{"last_login": at}
	return b.do(ctx, http.MethodPatch, "users", url.Values{"id": {"eq." + id}}, body, nil)
}

func (b *RestBackend) FindPackageByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Package, error) {
	var rows []packageRow
	q := url.Values{"tracking_number": {"eq." + trackingNumber}, "limit": {"1"}}
	if err := b.do(ctx, http.MethodGet, "packages", q, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var events []eventRow
	q = url.Values{"package_id": {"eq." + rows[0].ID}, "order": {"timestamp.asc"}}
	if err := b.do(ctx, http.MethodGet, "events", q, nil, &events); err != nil {
		return nil, err
	}
	return rows[0].toDomain(events), nil
}

func (b *RestBackend) AddTrackingEvent(ctx context.Context, trackingNumber string, event domain.TrackingEvent) (*domain.Package, error) {
	pkg, err := b.FindPackageByTrackingNumber(ctx, trackingNumber)
	if err != nil || pkg == nil {
		return nil, err
	}

	row := eventRow{
		PackageID:   pkg.ID,
		Timestamp:   event.Timestamp,
		Status:      event.Status,
		Location:    event.Location,
		Description: event.Description,
	}
	if err := b.do(ctx, http.MethodPost, "events", nil, row, nil); err != nil {
		return nil, err
	}
	pkg.Events = append(pkg.Events, event)
	return pkg, nil
}

// packagePatch is the mutable part of a packages row.
type packagePatch struct {
	Status            shipping.Status `json:"status"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery"`
	ActualDelivery    *time.Time      `json:"actual_delivery"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// SavePackage patches the row with pkg's tracking number. When no row
// matches, the package and its events are inserted.
func (b *RestBackend) SavePackage(ctx context.Context, pkg *domain.Package) error {
	patch := packagePatch{
		Status:            pkg.Status,
		EstimatedDelivery: pkg.EstimatedDelivery,
		ActualDelivery:    pkg.ActualDelivery,
		UpdatedAt:         pkg.UpdatedAt,
	}
	var rows []packageRow
	q := url.Values{"tracking_number": {"eq." + pkg.TrackingNumber}}
	if err := b.do(ctx, http.MethodPatch, "packages", q, patch, &rows); err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}

	row := newPackageRow(pkg)
	if err := b.do(ctx, http.MethodPost, "packages", nil, row, nil); err != nil {
		return err
	}
	if len(pkg.Events) == 0 {
		return nil
	}
	events := make([]eventRow, 0, len(pkg.Events))
	for _, e := range pkg.Events {
		events = append(events, eventRow{
			PackageID:   row.ID,
			Timestamp:   e.Timestamp,
			Status:      e.Status,
			Location:    e.Location,
			Description: e.Description,
		})
	}
	return b.do(ctx, http.MethodPost, "events", nil, events, nil)
}

func newPackageRow(p *domain.Package) packageRow {
	r := packageRow{
		ID:                p.ID,
		TrackingNumber:    p.TrackingNumber,
		UserID:            p.UserID,
		Status:            p.Status,
		Service:           p.Service,
		Weight:            p.Weight,
		Dimensions:        p.Dimensions,
		Sender:            p.Sender,
		Recipient:         p.Recipient,
		Cost:              p.Cost,
		EstimatedDelivery: p.EstimatedDelivery,
		ActualDelivery:    p.ActualDelivery,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if r.ID == "" {
		r.ID = uuid.Must(uuid.NewV7()).String()
	}
	return r
}

func (b *RestBackend) ListPackages(ctx context.Context) ([]domain.Package, error) {
	var rows []packageRow
	if err := b.do(ctx, http.MethodGet, "packages", url.Values{"order": {"created_at.asc"}}, nil, &rows); err != nil {
		return nil, err
	}
	var events []eventRow
	if err := b.do(ctx, http.MethodGet, "events", url.Values{"order": {"timestamp.asc"}}, nil, &events); err != nil {
		return nil, err
	}

	byPackage := make(map[string][]eventRow, len(rows))
	for _, e := range events {
		byPackage[e.PackageID] = append(byPackage[e.PackageID], e)
	}
	out := make([]domain.Package, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r.toDomain(byPackage[r.ID]))
	}
	return out, nil
}

// do issues a request against /rest/v1/<table> and decodes the JSON response into out when non-nil.
func (b *RestBackend) do(ctx context.Context, method, table string, query url.Values, body, out any) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", b.baseURL, table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s returned status %d: %s", method, table, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Name:         r.Name,
		UserType:     r.UserType,
		Preferences:  r.Preferences,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin,
	}
}

func (r packageRow) toDomain(events []eventRow) *domain.Package {
	p := &domain.Package{
		ID:                r.ID,
		TrackingNumber:    r.TrackingNumber,
		UserID:            r.UserID,
		Status:            r.Status,
		Service:           r.Service,
		Weight:            r.Weight,
		Dimensions:        r.Dimensions,
		Sender:            r.Sender,
		Recipient:         r.Recipient,
		Cost:              r.Cost,
		EstimatedDelivery: r.EstimatedDelivery,
		ActualDelivery:    r.ActualDelivery,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		Events:            make([]domain.TrackingEvent, 0, len(events)),
	}
	for _, e := range events {
		p.Events = append(p.Events, domain.TrackingEvent{
			Timestamp:   e.Timestamp,
			Status:      e.Status,
			Location:    e.Location,
			Description: e.Description,
		})
	}
	return p
}
