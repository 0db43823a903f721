package docrequest

import (
	"context"
	"sync"

	"github.com/brgy-santafe/registry/internal/sequence"
	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

// MemoryRepository backs the module in tests and local runs.
type MemoryRepository struct {
	mu sync.RWMutex

	requests        map[types.ID]*Request
	requestsArchive map[types.ID]*Request
	barangayIDs     map[types.ID]*BarangayID
	barangayArchive map[types.ID]*BarangayID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		requests:        make(map[types.ID]*Request),
		requestsArchive: make(map[types.ID]*Request),
		barangayIDs:     make(map[types.ID]*BarangayID),
		barangayArchive: make(map[types.ID]*BarangayID),
	}
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) ListRequests(_ context.Context, kind Kind, archived bool) ([]Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.requests
	if archived {
		src = r.requestsArchive
	}
	var out []Request
	for _, req := range src {
		if req.Kind == kind {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *MemoryRepository) GetRequest(_ context.Context, id types.ID) (*Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, errors.NotFound("request", id.String())
	}
	cp := *req
	return &cp, nil
}

func (r *MemoryRepository) CreateRequest(_ context.Context, req *Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *MemoryRepository) UpdateRequest(_ context.Context, req *Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requests[req.ID]; !ok {
		return errors.NotFound("request", req.ID.String())
	}
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *MemoryRepository) DeleteRequest(_ context.Context, id types.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requests[id]; !ok {
		return errors.NotFound("request", id.String())
	}
	delete(r.requests, id)
	return nil
}

func (r *MemoryRepository) TransferRequest(_ context.Context, id types.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return errors.NotFound("request", id.String())
	}
	r.requestsArchive[id] = req
	delete(r.requests, id)
	return nil
}

func (r *MemoryRepository) ListBarangayIDs(_ context.Context, archived bool) ([]BarangayID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.barangayIDs
	if archived {
		src = r.barangayArchive
	}
	var out []BarangayID
	for _, bid := range src {
		out = append(out, *bid)
	}
	return out, nil
}

func (r *MemoryRepository) GetBarangayID(_ context.Context, id types.ID) (*BarangayID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bid, ok := r.barangayIDs[id]
	if !ok {
		return nil, errors.NotFound("barangay ID", id.String())
	}
	cp := *bid
	return &cp, nil
}

func (r *MemoryRepository) CreateBarangayID(_ context.Context, bid *BarangayID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *bid
	r.barangayIDs[bid.ID] = &cp
	return nil
}

func (r *MemoryRepository) UpdateBarangayID(_ context.Context, bid *BarangayID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.barangayIDs[bid.ID]; !ok {
		return errors.NotFound("barangay ID", bid.ID.String())
	}
	cp := *bid
	r.barangayIDs[bid.ID] = &cp
	return nil
}

func (r *MemoryRepository) DeleteBarangayID(_ context.Context, id types.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.barangayIDs[id]; !ok {
		return errors.NotFound("barangay ID", id.String())
	}
	delete(r.barangayIDs, id)
	return nil
}

func (r *MemoryRepository) TransferBarangayID(_ context.Context, id types.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bid, ok := r.barangayIDs[id]
	if !ok {
		return errors.NotFound("barangay ID", id.String())
	}
	r.barangayArchive[id] = bid
	delete(r.barangayIDs, id)
	return nil
}

func (r *MemoryRepository) MaxIGPNumber(_ context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best := ""
	bestN := -1
	for _, src := range []map[types.ID]*BarangayID{r.barangayIDs, r.barangayArchive} {
		for _, bid := range src {
			if n := sequence.NumericPrefix(bid.IGPNumber); n > bestN {
				best, bestN = bid.IGPNumber, n
			}
		}
	}
	return best, nil
}

// IGPSource adapts a repository to the allocator contract so the IGP
// range can be a sequence.Domain like the case numbering ranges.
type IGPSource struct {
	Repo Repository
}

func (s IGPSource) MaxFieldValue(ctx context.Context, _ string) (string, error) {
	return s.Repo.MaxIGPNumber(ctx)
}

// IGPNumberDomain numbers barangay ID issuances across live and
// archived records.
func IGPNumberDomain(repo Repository, format sequence.Formatter) sequence.Domain {
	return sequence.Domain{
		Name:    "igp",
		Sources: []sequence.Source{{Name: "barangay-id", Store: IGPSource{Repo: repo}, Field: "igp"}},
		Format:  format,
	}
}
