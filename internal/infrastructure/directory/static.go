// Package directory provides a config-backed user directory. It decorates
// read models with display names; authorization never depends on it.
package directory

import (
	"context"

	"github.com/crmforge/approval-engine/internal/application/port"
)

// StaticDirectory resolves display names from a fixed map loaded at startup.
type StaticDirectory struct {
	users map[string]string
}

// NewStaticDirectory creates a directory from a user-id-to-name map
func NewStaticDirectory(users map[string]string) *StaticDirectory {
	return &StaticDirectory{users: users}
}

// DisplayName returns the configured name, falling back to the id itself
func (d *StaticDirectory) DisplayName(ctx context.Context, tenantID, userID string) string {
	if name, ok := d.users[userID]; ok {
		return name
	}
	return userID
}

// Verify interface compliance
var _ port.Directory = (*StaticDirectory)(nil)
