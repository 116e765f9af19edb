package store

import (
	"context"
	"database/sql"

	"github.com/golden-vcr/server-common/db"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

const postgresSchema = `CREATE SCHEMA IF NOT EXISTS overlay;
CREATE TABLE IF NOT EXISTS overlay.snapshot (
  key        text PRIMARY KEY,
  data       jsonb NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT now()
);`

// PostgresConfig describes the database connection, using the standard libpq
// environment variables
type PostgresConfig struct {
	Host     string `env:"PGHOST"`
	Port     int    `env:"PGPORT" default:"5432"`
	Name     string `env:"PGDATABASE"`
	User     string `env:"PGUSER"`
	Password string `env:"PGPASSWORD"`
	SslMode  string `env:"PGSSLMODE"`
}

// PostgresStore keeps values in the overlay.snapshot table
type PostgresStore struct {
	db *sql.DB
}

func OpenPostgres(ctx context.Context, config PostgresConfig) (*PostgresStore, error) {
	connectionString := db.FormatConnectionString(
		config.Host,
		config.Port,
		config.Name,
		config.User,
		config.Password,
		config.SslMode,
	)
	conn, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "connect to database")
	}
	if _, err := conn.ExecContext(ctx, postgresSchema); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "apply schema")
	}
	return &PostgresStore{db: conn}, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) Ping() error { return s.db.Ping() }

func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM overlay.snapshot WHERE key = $1`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select snapshot")
	}
	return data, nil
}

func (s *PostgresStore) Save(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	const q = `INSERT INTO overlay.snapshot (key, data, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, q, key, string(data))
	return errors.Wrap(err, "upsert snapshot")
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM overlay.snapshot WHERE key = $1`, key)
	return errors.Wrap(err, "delete snapshot")
}

var _ Store = (*PostgresStore)(nil)
