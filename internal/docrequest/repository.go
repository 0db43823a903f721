package docrequest

import (
	"context"

	"github.com/brgy-santafe/registry/internal/shared/types"
)

// Repository persists document requests and barangay ID issuances.
// Both live and archived rows go through it; archived is a flag on the
// operation, not a separate repository.
type Repository interface {
	ListRequests(ctx context.Context, kind Kind, archived bool) ([]Request, error)
	GetRequest(ctx context.Context, id types.ID) (*Request, error)
	CreateRequest(ctx context.Context, req *Request) error
	UpdateRequest(ctx context.Context, req *Request) error
	DeleteRequest(ctx context.Context, id types.ID) error

	// TransferRequest archives a fulfilled request: copy to the archive
	// table and remove the live row in one transaction.
	TransferRequest(ctx context.Context, id types.ID) error

	ListBarangayIDs(ctx context.Context, archived bool) ([]BarangayID, error)
	GetBarangayID(ctx context.Context, id types.ID) (*BarangayID, error)
	CreateBarangayID(ctx context.Context, bid *BarangayID) error
	UpdateBarangayID(ctx context.Context, bid *BarangayID) error
	DeleteBarangayID(ctx context.Context, id types.ID) error
	TransferBarangayID(ctx context.Context, id types.ID) error

	// MaxIGPNumber returns the highest stored IGP value across live and
	// archived issuances, "" when none exist.
	MaxIGPNumber(ctx context.Context) (string, error)
}
