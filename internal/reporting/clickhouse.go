package reporting

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// chConn is the slice of driver.Conn the recorder needs; narrowed so tests
// can substitute a fake.
type chConn interface {
	Exec(ctx context.Context, query string, args ...any) error
	Close() error
}

const createRunsTable = `
CREATE TABLE IF NOT EXISTS kindenv_runs (
	cluster    String,
	outcome    String,
	kubeconfig String,
	error      String,
	started_at DateTime64(3),
	duration_ms UInt64
) ENGINE = MergeTree()
ORDER BY (cluster, started_at)`

const insertRun = `
INSERT INTO kindenv_runs (cluster, outcome, kubeconfig, error, started_at, duration_ms)
VALUES (?, ?, ?, ?, ?, ?)`

// ClickHouseRecorder writes run records to a ClickHouse table.
type ClickHouseRecorder struct {
	conn chConn
}

// NewClickHouseRecorder connects to ClickHouse using the given DSN and
// ensures the runs table exists.
func NewClickHouseRecorder(ctx context.Context, dsn string) (*ClickHouseRecorder, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}
	rec := &ClickHouseRecorder{conn: conn}
	if err := rec.conn.Exec(ctx, createRunsTable); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ensure kindenv_runs table: %w", err)
	}
	return rec, nil
}

// Record inserts a single run record.
func (r *ClickHouseRecorder) Record(ctx context.Context, rec RunRecord) error {
	err := r.conn.Exec(ctx, insertRun,
		rec.Cluster,
		rec.Outcome,
		rec.Kubeconfig,
		rec.Error,
		rec.StartedAt,
		uint64(rec.Duration.Milliseconds()),
	)
	if err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (r *ClickHouseRecorder) Close() error {
	return r.conn.Close()
}
