package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"financetrack/internal/core"
)

// RoutingKeyPreferencesUpdated is the routing key of PreferencesUpdated events.
const RoutingKeyPreferencesUpdated = "preferences.updated"

// PreferencesUpdated announces a successfully persisted preferences change.
// It carries the full merged record so consumers never need to read storage.
type PreferencesUpdated struct {
	EventID     string           `json:"event_id"`
	Preferences core.Preferences `json:"preferences"`
	Timestamp   time.Time        `json:"timestamp"`
}

// NewPreferencesUpdated creates an event with a fresh ID.
func NewPreferencesUpdated(p core.Preferences) *PreferencesUpdated {
	return &PreferencesUpdated{
		EventID:     uuid.NewString(),
		Preferences: p,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PreferencesUpdated) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PreferencesUpdatedFromJSON decodes an event body.
func PreferencesUpdatedFromJSON(data []byte) (*PreferencesUpdated, error) {
	var msg PreferencesUpdated
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
