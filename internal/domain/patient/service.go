package patient

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/recorder/internal/platform/events"
)

// DefaultPublishTimeout bounds how long a write waits on event delivery.
const DefaultPublishTimeout = 2 * time.Second

// Service is the server-side owner of the collection: it re-validates every
// write, delegates storage to a Repository and announces changes.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    zerolog.Logger
	now       func() time.Time

	publishTimeout time.Duration
}

func NewService(repo Repository, publisher events.Publisher, logger zerolog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:           repo,
		publisher:      publisher,
		logger:         logger,
		now:            time.Now,
		publishTimeout: DefaultPublishTimeout,
	}
}

func (s *Service) List(ctx context.Context) ([]Patient, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (*Patient, error) {
	if errs := Validate(in, s.now()); !errs.Valid() {
		return nil, errs
	}
	p := in.ToPatient()
	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, err
	}
	s.publish(ctx, events.PatientCreated, p.ID, &p)
	return &p, nil
}

// Update fully replaces the record with the given id.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Patient, error) {
	if errs := Validate(in, s.now()); !errs.Valid() {
		return nil, errs
	}
	p := in.ToPatient()
	p.ID = id
	if err := s.repo.Update(ctx, &p); err != nil {
		return nil, err
	}
	s.publish(ctx, events.PatientUpdated, p.ID, &p)
	return &p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.PatientDeleted, id, nil)
	return nil
}

// ExportCSV renders the whole collection in list order.
func (s *Service) ExportCSV(ctx context.Context) (string, error) {
	patients, err := s.repo.List(ctx)
	if err != nil {
		return "", err
	}
	return GenerateCSV(patients), nil
}

func (s *Service) publish(ctx context.Context, typ string, id string, p *Patient) {
	evt := events.Event{
		ID:         uuid.NewString(),
		Type:       typ,
		ResourceID: id,
		Timestamp:  s.now().UTC(),
	}
	if p != nil {
		evt.Payload, _ = json.Marshal(p)
	}
	// The write has committed; only publishTimeout bounds delivery.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn().Err(err).Str("event", typ).Str("patient_id", evt.ResourceID).Msg("event publish failed")
	}
}
