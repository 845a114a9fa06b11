package archive

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/li1/pagstream/pag"
)

// SQLiteSink persists PagEdges to a single-file SQLite database. Designed
// for local replay runs and prototyping a downstream visualization tool
// against a real edge history without standing up a server.
type SQLiteSink struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewSQLiteSink opens (creating if absent) a SQLite database at path and
// ensures its schema exists. path may be ":memory:" for a transient store.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite archive: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &SQLiteSink{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) createTable(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS pag_edges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			src_t INTEGER NOT NULL,
			src_wid INTEGER NOT NULL,
			dst_t INTEGER NOT NULL,
			dst_wid INTEGER NOT NULL,
			kind TEXT NOT NULL,
			oid INTEGER,
			send INTEGER,
			recv INTEGER,
			length INTEGER,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create pag_edges table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_pag_edges_run_id ON pag_edges(run_id)"); err != nil {
		return fmt.Errorf("create idx_pag_edges_run_id: %w", err)
	}
	return nil
}

// Write implements Sink, inserting the batch inside a single transaction.
func (s *SQLiteSink) Write(ctx context.Context, runID string, edges []pag.PagEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("sqlite archive sink is closed")
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
func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
