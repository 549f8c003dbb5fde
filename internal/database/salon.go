package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"belleza/internal/models"
)

func scanRawSchedule(raw sql.NullString) (models.RawSchedule, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var out models.RawSchedule
	if err := json.Unmarshal([]byte(raw.String), &out); err != nil {
		return nil, fmt.Errorf("decode working hours: %w", err)
	}
	return out, nil
}

func encodeRawSchedule(raw models.RawSchedule) (string, error) {
	if raw == nil {
		return "", nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("encode working hours: %w", err)
	}
	return string(data), nil
}

func (s *Store) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	var tenant models.Tenant
	var hours sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, timezone, working_hours FROM tenants WHERE id = ?`, id,
	).Scan(&tenant.ID, &tenant.Name, &tenant.Timezone, &hours)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	if tenant.Hours, err = scanRawSchedule(hours); err != nil {
		return nil, err
	}
	return &tenant, nil
}

// CreateTenant inserts a tenant and fills in its generated id.
func (s *Store) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	hours, err := encodeRawSchedule(tenant.Hours)
	if err != nil {
		return err
	}
	if hours == "" {
		hours = "{}"
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO tenants (name, timezone, working_hours) VALUES (?, ?, ?)`,
		tenant.Name, tenant.Timezone, hours,
	)
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	tenant.ID, err = result.LastInsertId()
	return err
}

func scanStylist(row interface{ Scan(...any) error }) (*models.Stylist, error) {
	var stylist models.Stylist
	var lastService sql.NullTime
	var hours sql.NullString
	err := row.Scan(&stylist.ID, &stylist.TenantID, &stylist.Name, &stylist.Active, &lastService, &hours)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan stylist: %w", err)
	}
	if lastService.Valid {
		t := lastService.Time
		stylist.LastServiceAt = &t
	}
	if stylist.Hours, err = scanRawSchedule(hours); err != nil {
		return nil, err
	}
	return &stylist, nil
}

const stylistColumns = `id, tenant_id, name, active, last_service_at, working_hours`

func (s *Store) GetStylist(ctx context.Context, id int64) (*models.Stylist, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+stylistColumns+` FROM stylists WHERE id = ?`, id)
	return scanStylist(row)
}

// ListQualifiedStylists returns active stylists of the tenant associated with
// the service, ordered by id for deterministic tie-breaking.
func (s *Store) ListQualifiedStylists(ctx context.Context, tenantID, serviceID int64) ([]*models.Stylist, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT s.id, s.tenant_id, s.name, s.active, s.last_service_at, s.working_hours
        FROM stylists s
        JOIN stylist_services ss ON ss.stylist_id = s.id
        WHERE s.tenant_id = ? AND ss.service_id = ? AND s.active = 1
        ORDER BY s.id`,
		tenantID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("list qualified stylists: %w", err)
	}
	defer rows.Close()

	var stylists []*models.Stylist
	for rows.Next() {
		stylist, err := scanStylist(rows)
		if err != nil {
			return nil, err
		}
		stylists = append(stylists, stylist)
	}
	return stylists, rows.Err()
}

// ListStylists returns all active stylists of a tenant, ordered by id.
func (s *Store) ListStylists(ctx context.Context, tenantID int64) ([]*models.Stylist, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+stylistColumns+` FROM stylists WHERE tenant_id = ? AND active = 1 ORDER BY id`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("list stylists: %w", err)
	}
	defer rows.Close()

	var stylists []*models.Stylist
	for rows.Next() {
		stylist, err := scanStylist(rows)
		if err != nil {
			return nil, err
		}
		stylists = append(stylists, stylist)
	}
	return stylists, rows.Err()
}

// CreateStylist inserts a stylist and fills in its generated id.
func (s *Store) CreateStylist(ctx context.Context, stylist *models.Stylist) error {
	hours, err := encodeRawSchedule(stylist.Hours)
	if err != nil {
		return err
	}

	var hoursArg any
	if hours != "" {
		hoursArg = hours
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO stylists (tenant_id, name, active, working_hours) VALUES (?, ?, ?, ?)`,
		stylist.TenantID, stylist.Name, stylist.Active, hoursArg,
	)
	if err != nil {
		return fmt.Errorf("create stylist: %w", err)
	}
	stylist.ID, err = result.LastInsertId()
	return err
}

// AssignService associates a stylist with a service it is qualified for.
func (s *Store) AssignService(ctx context.Context, stylistID, serviceID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO stylist_services (stylist_id, service_id) VALUES (?, ?)`,
		stylistID, serviceID,
	)
	if err != nil {
		return fmt.Errorf("assign service: %w", err)
	}
	return nil
}

// StampLastService records the fairness marker for turn assignment. Only the
// checkout/completion path calls this.
func (s *Store) StampLastService(ctx context.Context, stylistID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE stylists SET last_service_at = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), stylistID,
	)
	if err != nil {
		return fmt.Errorf("stamp last service: %w", err)
	}
	return nil
}

func (s *Store) GetService(ctx context.Context, id int64) (*models.Service, error) {
	var svc models.Service
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, duration_minutes, active FROM services WHERE id = ?`, id,
	).Scan(&svc.ID, &svc.TenantID, &svc.Name, &svc.DurationMinutes, &svc.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	return &svc, nil
}

// ListActiveServices returns the tenant's bookable services ordered by id.
func (s *Store) ListActiveServices(ctx context.Context, tenantID int64) ([]*models.Service, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, name, duration_minutes, active
         FROM services WHERE tenant_id = ? AND active = 1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		var svc models.Service
		if err := rows.Scan(&svc.ID, &svc.TenantID, &svc.Name, &svc.DurationMinutes, &svc.Active); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, &svc)
	}
	return services, rows.Err()
}

// CreateService inserts a service and fills in its generated id.
func (s *Store) CreateService(ctx context.Context, svc *models.Service) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO services (tenant_id, name, duration_minutes, active) VALUES (?, ?, ?, ?)`,
		svc.TenantID, svc.Name, svc.DurationMinutes, svc.Active,
	)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	svc.ID, err = result.LastInsertId()
	return err
}

// GetClient fetches a client by id.
func (s *Store) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	var client models.Client
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, first_name, last_name, phone FROM clients WHERE id = ?`, id,
	).Scan(&client.ID, &client.TenantID, &client.FirstName, &client.LastName, &client.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &client, nil
}

// GetOrCreateClient looks a client up by tenant and phone, creating the row
// on first contact.
func (s *Store) GetOrCreateClient(ctx context.Context, client *models.Client) error {
	err := s.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name FROM clients WHERE tenant_id = ? AND phone = ?`,
		client.TenantID, client.Phone,
	).Scan(&client.ID, &client.FirstName, &client.LastName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("get client: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (tenant_id, first_name, last_name, phone) VALUES (?, ?, ?, ?)`,
		client.TenantID, client.FirstName, client.LastName, client.Phone,
	)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	client.ID, err = result.LastInsertId()
	return err
}
