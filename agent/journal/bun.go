package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"
)

type Config struct {
	// DSN is a postgres:// URL or a sqlite path such as "file:relay.db".
	DSN string `envconfig:"DSN"`
}

// Row is the persisted shape of an Entry.
type Row struct {
	bun.BaseModel `bun:"table:dispatch_journal,alias:j"`

	ID         string    `bun:"id,pk"`
	SessionID  string    `bun:"session_id,notnull"`
	Tool       string    `bun:"tool,notnull"`
	Parameters string    `bun:"parameters"`
	ResultKind string    `bun:"result_kind,notnull"`
	Error      string    `bun:"error,nullzero"`
	LatencyMS  int64     `bun:"latency_ms"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

func rowFromEntry(e Entry) (*Row, error) {
	params := ""
	if len(e.Parameters) > 0 {
		raw, err := json.Marshal(e.Parameters)
		if err != nil {
			return nil, fmt.Errorf("marshal parameters: %w", err)
		}
		params = string(raw)
	}
	return &Row{
		ID:         e.ID,
		SessionID:  e.SessionID,
		Tool:       e.Tool,
		Parameters: params,
		ResultKind: e.ResultKind,
		Error:      e.Error,
		LatencyMS:  e.Latency.Milliseconds(),
		CreatedAt:  e.CreatedAt,
	}, nil
}

// BunSink stores entries in postgres or sqlite.
type BunSink struct {
	db *bun.DB
}

var _ Sink = (*BunSink)(nil)

// Open connects to the database named by dsn and ensures the journal table.
func Open(ctx context.Context, dsn string) (*BunSink, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	sink := &BunSink{db: db}
	if err := sink.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sink, nil
}

func openDB(dsn string) (*bun.DB, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, errors.New("journal dsn is required")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		sqldb, err := sql.Open("sqlite", strings.TrimPrefix(dsn, "sqlite://"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite allows a single writer; :memory: databases are per connection.
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	}
}

func (s *BunSink) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*Row)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create journal table: %w", err)
	}
	return nil
}

func (s *BunSink) Record(ctx context.Context, entry Entry) error {
	row, err := rowFromEntry(entry)
	if err != nil {
		return err
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert journal row: %w", err)
	}
	return nil
}

// Recent returns the newest entries of a session, newest first.
func (s *BunSink) Recent(ctx context.Context, sessionID string, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []Row
	err := s.db.NewSelect().
		Model(&rows).
		Where("session_id = ?", sessionID).
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select journal rows: %w", err)
	}
	return rows, nil
}

func (s *BunSink) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *BunSink) Close() error {
	return s.db.Close()
}
