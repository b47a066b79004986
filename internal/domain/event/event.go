package event

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Event represents a domain event emitted by the approval engine after a
// state-changing operation commits. Events are observational: no engine
// decision ever depends on one.
type Event struct {
	ID         string                 `json:"id"`
	Type       Type                   `json:"type"`
	TenantID   string                 `json:"tenant_id"`
	InstanceID int64                  `json:"instance_id"`
	Payload    map[string]interface{} `json:"payload"`
	Timestamp  time.Time              `json:"timestamp"`
}

// NewEvent creates a new domain event with an auto-generated ID and timestamp
func NewEvent(eventType Type, tenantID string, instanceID int64, payload map[string]interface{}) *Event {
	return &Event{
		ID:         generateID(),
		Type:       eventType,
		TenantID:   tenantID,
		InstanceID: instanceID,
		Payload:    payload,
		Timestamp:  time.Now(),
	}
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

// generateID creates a unique ID using timestamp and random bytes
func generateID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), hex.EncodeToString(b))
}
