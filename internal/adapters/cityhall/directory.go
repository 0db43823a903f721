// Package cityhall integrates with the municipal civil-registry SQL
// Server to resolve resident contact details. The barangay does not
// own that database; it only reads from it.
package cityhall

import (
	"context"
	"strings"
	"sync"

	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

// Directory looks residents up in the city hall registry.
type Directory interface {
	FindResidentEmail(ctx context.Context, name types.PersonName) (string, error)
	Health(ctx context.Context) error
}

// MemoryDirectory serves tests and deployments without city hall
// connectivity.
type MemoryDirectory struct {
	mu     sync.RWMutex
	emails map[string]string
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{emails: make(map[string]string)}
}

var _ Directory = (*MemoryDirectory)(nil)

// Register adds a resident's email, keyed by full name.
func (d *MemoryDirectory) Register(name types.PersonName, email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emails[strings.ToLower(name.Full())] = email
}

func (d *MemoryDirectory) FindResidentEmail(_ context.Context, name types.PersonName) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if email, ok := d.emails[strings.ToLower(name.Full())]; ok {
		return email, nil
	}
	return "", errors.NotFound("resident", name.Full())
}

func (d *MemoryDirectory) Health(context.Context) error {
	return nil
}
