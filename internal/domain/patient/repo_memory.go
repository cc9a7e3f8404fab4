package patient

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps records in insertion order for the lifetime of the
// process. Email is the natural key: it must be unique across records.
type MemoryRepository struct {
	mu       sync.RWMutex
	patients []Patient
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

func (r *MemoryRepository) List(_ context.Context) ([]Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Patient, len(r.patients))
	copy(out, r.patients)
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	p := r.patients[i]
	return &p, nil
}

func (r *MemoryRepository) Create(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(p.Email, "") {
		return ErrDuplicateEmail
	}
	p.ID = uuid.NewString()
	created := r.now().UTC()
	p.CreatedAt = &created
	r.patients = append(r.patients, *p)
	return nil
}

// Update replaces the whole record identified by p.ID, keeping its creation
// time.
func (r *MemoryRepository) Update(_ context.Context, p *Patient) error {
	if p.ID == "" {
		return ErrMissingID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(p.ID)
	if i < 0 {
		return ErrNotFound
	}
	if r.emailTaken(p.Email, p.ID) {
		return ErrDuplicateEmail
	}
	p.CreatedAt = r.patients[i].CreatedAt
	r.patients[i] = *p
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	r.patients = append(r.patients[:i], r.patients[i+1:]...)
	return nil
}

func (r *MemoryRepository) indexOf(id string) int {
	for i := range r.patients {
		if r.patients[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *MemoryRepository) emailTaken(email string, except string) bool {
	for i := range r.patients {
		if r.patients[i].ID != except && strings.EqualFold(r.patients[i].Email, email) {
			return true
		}
	}
	return false
}
