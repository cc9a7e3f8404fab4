package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const patientCols = `id, name, email, age, weight, location, stage, date_diagnosed, created_at`

func (r *PostgresRepository) List(ctx context.Context) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("patient list: %w", err)
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("patient list: %w", err)
		}
		patients = append(patients, *p)
	}
	return patients, rows.Err()
}

// parseID maps ids that cannot be a row key to ErrNotFound rather than
// letting the uuid cast fail inside the query.
func parseID(id string) (uuid.UUID, error) {
	if id == "" {
		return uuid.Nil, ErrMissingID
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return uid, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Patient, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	p, err := scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("patient get: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *Patient) error {
	diagnosed, err := time.Parse(DateLayout, p.DateDiagnosed)
	if err != nil {
		return fmt.Errorf("patient create: date_diagnosed: %w", err)
	}
	uid := uuid.New()
	var created time.Time
	err = r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, name, email, age, weight, location, stage, date_diagnosed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		uid, p.Name, p.Email, p.Age, p.Weight, p.Location, string(p.Stage), diagnosed,
	).Scan(&created)
	if err != nil {
		return mapWriteError("patient create", err)
	}
	p.ID = uid.String()
	p.CreatedAt = &created
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *Patient) error {
	uid, err := parseID(p.ID)
	if err != nil {
		return err
	}
	diagnosed, err := time.Parse(DateLayout, p.DateDiagnosed)
	if err != nil {
		return fmt.Errorf("patient update: date_diagnosed: %w", err)
	}
	var created time.Time
	err = r.pool.QueryRow(ctx, `
		UPDATE patients SET name = $2, email = $3, age = $4, weight = $5,
			location = $6, stage = $7, date_diagnosed = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at`,
		uid, p.Name, p.Email, p.Age, p.Weight, p.Location, string(p.Stage), diagnosed,
	).Scan(&created)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return mapWriteError("patient update", err)
	}
	p.CreatedAt = &created
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("patient delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var (
		p         Patient
		id        uuid.UUID
		stage     string
		diagnosed time.Time
		created   time.Time
	)
	err := row.Scan(&id, &p.Name, &p.Email, &p.Age, &p.Weight, &p.Location, &stage, &diagnosed, &created)
	if err != nil {
		return nil, err
	}
	p.ID = id.String()
	p.Stage = Stage(stage)
	p.DateDiagnosed = diagnosed.Format(DateLayout)
	p.CreatedAt = &created
	return &p, nil
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	return fmt.Errorf("%s: %w", op, err)
}
