package models

import "time"

// Conversation step names used by the chat gateway.
const (
	StepIdle           = "idle"
	StepSelectService  = "select_service"
	StepEnterDate      = "enter_date"
	StepEnterTime      = "enter_time"
	StepSelectStylist  = "select_stylist"
	StepEnterName      = "enter_name"
	StepConfirmBooking = "confirm_booking"
)

// Session is per-chat conversational state. It is advisory only: the booking
// transaction re-validates availability at commit time regardless of what the
// conversation already confirmed.
type Session struct {
	ChatID int64          `json:"chat_id"`
	Step   string         `json:"step"`
	Data   map[string]any `json:"data,omitempty"`
}

func (s *Session) GetInt64(key string) int64 {
	if s.Data == nil {
		return 0
	}
	switch v := s.Data[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	default:
		return 0
	}
}

func (s *Session) GetString(key string) string {
	if s.Data == nil {
		return ""
	}
	if v, ok := s.Data[key].(string); ok {
		return v
	}
	return ""
}

func (s *Session) GetTime(key string) time.Time {
	if s.Data == nil {
		return time.Time{}
	}
	switch v := s.Data[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Set stores a value, allocating the data map on first use.
func (s *Session) Set(key string, value any) {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
}
