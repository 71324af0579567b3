package leads

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the lead storage contract. Upsert must be atomic per
// dedup key: two concurrent upserts for the same email or phone must not
// create duplicate leads.
type Repository interface {
	Upsert(ctx context.Context, req *UpsertRequest) (*Lead, error)
	List(ctx context.Context) ([]*Lead, error)
}

// InMemoryRepository keeps leads in a slice, preserving storage order. A
// single mutex makes each read-modify-write atomic.
type InMemoryRepository struct {
	mu    sync.Mutex
	leads []*Lead
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Upsert merges into the lead matching the email (case-insensitive) or, if
// none, the phone (verbatim); otherwise it creates a new lead.
func (r *InMemoryRepository) Upsert(ctx context.Context, req *UpsertRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	if lead := r.findLocked(req); lead != nil {
		lead.apply(req, now)
		return lead.clone(), nil
	}

	lead := newLead(uuid.New().String(), req, now)
	r.leads = append(r.leads, lead)
	return lead.clone(), nil
}

// findLocked applies the dedup lookup order: email first, phone second.
func (r *InMemoryRepository) findLocked(req *UpsertRequest) *Lead {
	if email := req.NormalizedEmail(); email != "" {
		for _, l := range r.leads {
			if l.Email != "" && strings.ToLower(l.Email) == email {
				return l
			}
		}
	}
	if req.Phone != "" {
		for _, l := range r.leads {
			if l.Phone == req.Phone {
				return l
			}
		}
	}
	return nil
}

// List returns all leads in storage order.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Lead, 0, len(r.leads))
	for _, l := range r.leads {
		out = append(out, l.clone())
	}
	return out, nil
}

func (l *Lead) clone() *Lead {
	c := *l
	c.Interactions = append([]Interaction(nil), l.Interactions...)
	return &c
}
