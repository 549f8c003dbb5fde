package service

import (
	"context"
	"testing"
	"time"

	"belleza/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTurn(s *testSalon) *TurnService {
	logger := zerolog.Nop()
	return NewTurnService(s.store, newAvailability(s), &logger)
}

func addStylist(t *testing.T, s *testSalon, name string, lastService *time.Time) *models.Stylist {
	t.Helper()
	ctx := context.Background()
	st := &models.Stylist{TenantID: s.tenant.ID, Name: name, Active: true}
	require.NoError(t, s.store.CreateStylist(ctx, st))
	require.NoError(t, s.store.AssignService(ctx, st.ID, s.service.ID))
	if lastService != nil {
		require.NoError(t, s.store.StampLastService(ctx, st.ID, *lastService))
	}
	return st
}

func TestSuggestStylistNeverServedFirst(t *testing.T) {
	salon := newTestSalon(t)
	turn := newTurn(salon)
	ctx := context.Background()

	// Carolina (from the fixture) served yesterday; Rosa has never served.
	yesterday := time.Now().Add(-24 * time.Hour)
	require.NoError(t, salon.store.StampLastService(ctx, salon.stylist.ID, yesterday))
	rosa := addStylist(t, salon, "Rosa", nil)

	start := time.Date(2025, 1, 6, 10, 0, 0, 0, salon.loc)
	picked, err := turn.SuggestStylist(ctx, salon.tenant.ID, salon.service.ID, start, "")
	require.NoError(t, err)
	assert.Equal(t, rosa.ID, picked.ID, "a never-served stylist outranks any served one")
}

func TestSuggestStylistLeastRecentlyServed(t *testing.T) {
	salon := newTestSalon(t)
	turn := newTurn(salon)
	ctx := context.Background()

	older := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC)
	require.NoError(t, salon.store.StampLastService(ctx, salon.stylist.ID, newer))
	rosa := addStylist(t, salon, "Rosa", &older)

	start := time.Date(2025, 1, 6, 10, 0, 0, 0, salon.loc)
	picked, err := turn.SuggestStylist(ctx, salon.tenant.ID, salon.service.ID, start, "")
	require.NoError(t, err)
	assert.Equal(t, rosa.ID, picked.ID)
}

func TestSuggestStylistTieBreaksByID(t *testing.T) {
	salon := newTestSalon(t)
	turn := newTurn(salon)
	ctx := context.Background()

	addStylist(t, salon, "Rosa", nil)
	addStylist(t, salon, "Luisa", nil)

	start := time.Date(2025, 1, 6, 10, 0, 0, 0, salon.loc)
	picked, err := turn.SuggestStylist(ctx, salon.tenant.ID, salon.service.ID, start, "")
	require.NoError(t, err)
	assert.Equal(t, salon.stylist.ID, picked.ID, "lowest id wins when nobody has served")
}

func TestSuggestStylistSkipsBusy(t *testing.T) {
	salon := newTestSalon(t)
	turn := newTurn(salon)
	ctx := context.Background()

	rosa := addStylist(t, salon, "Rosa", nil)

	// Carolina (lowest id, never served) is booked over the requested window.
	start := time.Date(2025, 1, 6, 10, 0, 0, 0, salon.loc)
	salon.book(t, start, 60)

	picked, err := turn.SuggestStylist(ctx, salon.tenant.ID, salon.service.ID, start, "")
	require.NoError(t, err)
	assert.Equal(t, rosa.ID, picked.ID, "the next stylist in turn order takes the slot")
}

func TestSuggestStylistByName(t *testing.T) {
	salon := newTestSalon(t)
	turn := newTurn(salon)
	ctx := context.Background()

	rosa := addStylist(t, salon, "Rosa Maria", nil)
	start := time.Date(2025, 1, 6, 10, 0, 0, 0, salon.loc)

	picked, err := turn.SuggestStylist(ctx, salon.tenant.ID, salon.service.ID, start, "rosa")
	require.NoError(t, err)
	assert.Equal(t, rosa.ID, picked.ID)

	_, err = turn.SuggestStylist(ctx, salon.tenant.ID, salon.service.ID, start, "valentina")
	assert.ErrorIs(t, err, ErrStylistNotFound)
}

func TestSuggestStylistNoneAvailable(t *testing.T) {
	salon := newTestSalon(t)
	turn := newTurn(salon)
	ctx := context.Background()

	start := time.Date(2025, 1, 6, 10, 0, 0, 0, salon.loc)
	salon.book(t, start, 60)

	_, err := turn.SuggestStylist(ctx, salon.tenant.ID, salon.service.ID, start, "")
	assert.ErrorIs(t, err, ErrNoStylistAvailable)
}
