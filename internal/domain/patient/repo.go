package patient

import (
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("patient not found")
	ErrDuplicateEmail = errors.New("a patient with this email already exists")
	ErrMissingID      = errors.New("patient id is required")
)

// Repository owns the canonical patient collection. Exactly one
// implementation backs a running process: MemoryRepository for an ephemeral
// session, RemoteRepository against a patient service, or PostgresRepository
// on the server side.
type Repository interface {
	List(ctx context.Context) ([]Patient, error)
	Get(ctx context.Context, id string) (*Patient, error)
	Create(ctx context.Context, p *Patient) error
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id string) error
}
