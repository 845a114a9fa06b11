package archive

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/li1/pagstream/pag"
)

// MySQLSink persists PagEdges to a MySQL/MariaDB table, for archive runs
// shared across multiple replay processes or kept around for audit.
type MySQLSink struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewMySQLSink opens a connection pool against dsn and ensures the schema
// exists. dsn follows the go-sql-driver/mysql DSN format, e.g.
// "user:password@tcp(127.0.0.1:3306)/pagstream?parseTime=true".
func NewMySQLSink(dsn string) (*MySQLSink, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql archive: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &MySQLSink{db: db}
	if err := s.createTable(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLSink) createTable(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS pag_edges (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id VARCHAR(255) NOT NULL,
			src_t BIGINT NOT NULL,
			src_wid INT NOT NULL,
			dst_t BIGINT NOT NULL,
			dst_wid INT NOT NULL,
			kind VARCHAR(32) NOT NULL,
			oid BIGINT NULL,
			send BIGINT NULL,
			recv BIGINT NULL,
			length BIGINT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_pag_edges_run_id (run_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create pag_edges table: %w", err)
	}
	return nil
}

// Write implements Sink, inserting the batch inside a single transaction.
func (s *MySQLSink) Write(ctx context.Context, runID string, edges []pag.PagEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("mysql archive sink is closed")
	}
	if len(edges) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pag_edges (run_id, src_t, src_wid, dst_t, dst_wid, kind, oid, send, recv, length)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare archive insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range edges {
		row := toRow(e)
		if _, err := stmt.ExecContext(ctx, runID, row.srcT, row.srcWid, row.dstT, row.dstWid, row.kind,
			nullableInt(row.oid), nullableInt(row.send), nullableInt(row.recv), nullableInt(row.length)); err != nil {
			return fmt.Errorf("insert archived edge: %w", err)
		}
	}

	return tx.Commit()
}

// Close implements Sink.
func (s *MySQLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
