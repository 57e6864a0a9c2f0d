package journal

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists journal entries in a PostgreSQL table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS settlement_journal (
    id BIGSERIAL PRIMARY KEY,
    campaign_id TEXT NOT NULL,
    action TEXT NOT NULL,
    transition_tx TEXT,
    transfer_tx TEXT,
    anomaly BOOLEAN NOT NULL DEFAULT FALSE,
    error TEXT,
    recorded_at TIMESTAMPTZ NOT NULL
);
`

// NewPostgresStore connects to Postgres using the DSN and ensures the table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) Record(ctx context.Context, entry Entry) error {
	_, err := p.pool.Exec(ctx, `
INSERT INTO settlement_journal (campaign_id, action, transition_tx, transfer_tx, anomaly, error, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, entry.CampaignID, entry.Action, entry.TransitionTx, entry.TransferTx, entry.Anomaly, entry.Error, entry.RecordedAt)
	return err
}
