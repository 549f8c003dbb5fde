package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"belleza/internal/domain"
	"belleza/internal/models"

	"github.com/rs/zerolog"
)

// TurnService assigns the "next turn" stylist: least recently served first,
// never-served stylists before everyone, ties broken by id. It is a greedy,
// stateless computation — it reserves nothing; the booking transaction is
// what guarantees a picked stylist cannot be double-booked.
type TurnService struct {
	store        domain.Store
	availability domain.Availability
	logger       *zerolog.Logger
}

func NewTurnService(store domain.Store, availability domain.Availability, logger *zerolog.Logger) *TurnService {
	return &TurnService{store: store, availability: availability, logger: logger}
}

// byTurn orders stylists for fairness: nil last_service_at first, then oldest
// marker, id as the deterministic tie-break.
func byTurn(stylists []*models.Stylist) {
	sort.SliceStable(stylists, func(i, j int) bool {
		a, b := stylists[i], stylists[j]
		switch {
		case a.LastServiceAt == nil && b.LastServiceAt == nil:
			return a.ID < b.ID
		case a.LastServiceAt == nil:
			return true
		case b.LastServiceAt == nil:
			return false
		case a.LastServiceAt.Equal(*b.LastServiceAt):
			return a.ID < b.ID
		default:
			return a.LastServiceAt.Before(*b.LastServiceAt)
		}
	})
}

// SuggestStylist selects exactly one eligible stylist for the slot starting
// at start; the slot end follows from the service duration. When
// requestedName is non-empty the candidate set is first narrowed by
// case-insensitive substring match; no match is StylistNotFound. No
// eligible-and-free stylist is NoStylistAvailable.
func (s *TurnService) SuggestStylist(ctx context.Context, tenantID, serviceID int64, start time.Time, requestedName string) (*models.Stylist, error) {
	stylists, err := s.store.ListQualifiedStylists(ctx, tenantID, serviceID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(requestedName); name != "" {
		needle := strings.ToLower(name)
		var matched []*models.Stylist
		for _, st := range stylists {
			if strings.Contains(strings.ToLower(st.Name), needle) {
				matched = append(matched, st)
			}
		}
		if len(matched) == 0 {
			return nil, ErrStylistNotFound
		}
		stylists = matched
	}

	byTurn(stylists)

	for _, st := range stylists {
		check, err := s.availability.IsSlotAvailable(ctx, tenantID, st.ID, serviceID, start)
		if err != nil {
			return nil, err
		}
		if check.Available {
			s.logger.Debug().
				Int64("stylist_id", st.ID).
				Time("start", start).
				Msg("turn assigned")
			return st, nil
		}
	}
	return nil, ErrNoStylistAvailable
}
