package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type pgxQuerier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores leads in the relational database. The dedup
// check-then-write runs inside a transaction with a row lock, so concurrent
// upserts for the same contact key serialize instead of duplicating.
type PostgresRepository struct {
	pool pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// newPostgresRepository is the seam used by pgxmock tests.
func newPostgresRepository(pool pgxQuerier) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const leadColumns = `id, name, email, phone, language, channel, marketing_consent, created_at, last_message_at, interactions`

// Upsert merges into the lead matching the email (case-insensitive) or, if
// none, the phone (verbatim); otherwise it inserts a new row.
func (r *PostgresRepository) Upsert(ctx context.Context, req *UpsertRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("leads: begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	lead, err := r.lockExisting(ctx, tx, req)
	if err != nil {
		return nil, err
	}

	if lead != nil {
		lead.apply(req, now)
		if err := r.update(ctx, tx, lead); err != nil {
			return nil, err
		}
	} else {
		lead = newLead(uuid.New().String(), req, now)
		if err := r.insert(ctx, tx, lead); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("leads: commit upsert: %w", err)
	}
	return lead, nil
}

// lockExisting runs the dedup lookup (email first, then phone) with
// SELECT ... FOR UPDATE so the merge is atomic per key.
func (r *PostgresRepository) lockExisting(ctx context.Context, tx pgx.Tx, req *UpsertRequest) (*Lead, error) {
	if email := req.NormalizedEmail(); email != "" {
		lead, err := r.selectOne(ctx, tx,
			`SELECT `+leadColumns+` FROM leads WHERE lower(email) = $1 FOR UPDATE`, email)
		if err != nil {
			return nil, err
		}
		if lead != nil {
			return lead, nil
		}
	}
	if req.Phone != "" {
		return r.selectOne(ctx, tx,
			`SELECT `+leadColumns+` FROM leads WHERE phone = $1 FOR UPDATE`, req.Phone)
	}
	return nil, nil
}

func (r *PostgresRepository) selectOne(ctx context.Context, tx pgx.Tx, query string, arg any) (*Lead, error) {
	row := tx.QueryRow(ctx, query, arg)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("leads: dedup lookup failed: %w", err)
	}
	return lead, nil
}

func (r *PostgresRepository) insert(ctx context.Context, tx pgx.Tx, lead *Lead) error {
	interactions, err := json.Marshal(lead.Interactions)
	if err != nil {
		return fmt.Errorf("leads: marshal interactions: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO leads (id, name, email, phone, language, channel, marketing_consent, created_at, last_message_at, interactions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, lead.ID, lead.Name, lead.Email, lead.Phone, lead.Language, lead.Channel,
		lead.MarketingConsent, lead.CreatedAt, lead.LastMessageAt, interactions)
	if err != nil {
		return fmt.Errorf("leads: insert failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) update(ctx context.Context, tx pgx.Tx, lead *Lead) error {
	interactions, err := json.Marshal(lead.Interactions)
	if err != nil {
		return fmt.Errorf("leads: marshal interactions: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE leads
		SET name = $2, email = $3, phone = $4, language = $5, channel = $6,
		    marketing_consent = $7, last_message_at = $8, interactions = $9
		WHERE id = $1
	`, lead.ID, lead.Name, lead.Email, lead.Phone, lead.Language, lead.Channel,
		lead.MarketingConsent, lead.LastMessageAt, interactions)
	if err != nil {
		return fmt.Errorf("leads: update failed: %w", err)
	}
	return nil
}

// List returns all leads in insertion order.
func (r *PostgresRepository) List(ctx context.Context) ([]*Lead, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*Lead, error) {
	var lead Lead
	var interactions []byte
	if err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Language,
		&lead.Channel,
		&lead.MarketingConsent,
		&lead.CreatedAt,
		&lead.LastMessageAt,
		&interactions,
	); err != nil {
		return nil, err
	}
	if len(interactions) > 0 {
		if err := json.Unmarshal(interactions, &lead.Interactions); err != nil {
			return nil, fmt.Errorf("decode interactions: %w", err)
		}
	}
	return &lead, nil
}
