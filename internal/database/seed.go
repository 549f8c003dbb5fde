package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"belleza/internal/models"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Tenant struct {
		Name     string             `yaml:"name"`
		Timezone string             `yaml:"timezone"`
		Hours    models.RawSchedule `yaml:"hours"`
	} `yaml:"tenant"`
	Services []struct {
		Name            string `yaml:"name"`
		DurationMinutes int    `yaml:"duration_minutes"`
	} `yaml:"services"`
	Stylists []struct {
		Name     string             `yaml:"name"`
		Services []string           `yaml:"services"`
		Hours    models.RawSchedule `yaml:"hours"`
	} `yaml:"stylists"`
}

// Seed loads the salon fixture into an empty database and returns the tenant
// id. A database that already has the tenant is left untouched.
func (s *Store) Seed(ctx context.Context, path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}
	if seed.Tenant.Name == "" || seed.Tenant.Timezone == "" {
		return 0, fmt.Errorf("seed file needs tenant name and timezone")
	}

	var existingID int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM tenants WHERE name = ?`, seed.Tenant.Name).Scan(&existingID)
	switch {
	case err == nil:
		s.logger.Info().Int64("tenant_id", existingID).Msg("tenant already seeded")
		return existingID, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("look up tenant %q: %w", seed.Tenant.Name, err)
	}

	tenant := &models.Tenant{
		Name:     seed.Tenant.Name,
		Timezone: seed.Tenant.Timezone,
		Hours:    seed.Tenant.Hours,
	}
	if err := s.CreateTenant(ctx, tenant); err != nil {
		return 0, err
	}

	serviceIDs := make(map[string]int64, len(seed.Services))
	for _, raw := range seed.Services {
		svc := &models.Service{
			TenantID:        tenant.ID,
			Name:            raw.Name,
			DurationMinutes: raw.DurationMinutes,
			Active:          true,
		}
		if err := s.CreateService(ctx, svc); err != nil {
			return 0, err
		}
		serviceIDs[raw.Name] = svc.ID
	}

	for _, raw := range seed.Stylists {
		stylist := &models.Stylist{
			TenantID: tenant.ID,
			Name:     raw.Name,
			Active:   true,
			Hours:    raw.Hours,
		}
		if err := s.CreateStylist(ctx, stylist); err != nil {
			return 0, err
		}
		for _, serviceName := range raw.Services {
			serviceID, ok := serviceIDs[serviceName]
			if !ok {
				return 0, fmt.Errorf("stylist %q references unknown service %q", raw.Name, serviceName)
			}
			if err := s.AssignService(ctx, stylist.ID, serviceID); err != nil {
				return 0, err
			}
		}
	}

	s.logger.Info().
		Int64("tenant_id", tenant.ID).
		Int("services", len(seed.Services)).
		Int("stylists", len(seed.Stylists)).
		Msg("database seeded")
	return tenant.ID, nil
}
