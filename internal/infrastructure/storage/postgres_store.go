package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"EditaisScanner/internal/domain"
	"EditaisScanner/internal/ports"
)

// PostgresStore persists the accepted set into a Postgres table.
type PostgresStore struct {
	db    *sql.DB
	table string
	psql  sq.StatementBuilderType
}

var _ ports.NoticeStore = (*PostgresStore)(nil)

// OpenPostgres connects with the lib/pq driver and ensures the table exists.
func OpenPostgres(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := NewPostgresStore(db, table)
	if _, err := db.ExecContext(ctx, store.schemaSQL()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

// NewPostgresStore wires an existing sql.DB.
func NewPostgresStore(db *sql.DB, table string) *PostgresStore {
	if table == "" {
		table = "accepted_notices"
	}
	return &PostgresStore{
		db:    db,
		table: pq.QuoteIdentifier(table),
		psql:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) schemaSQL() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    position INTEGER NOT NULL,
    title    TEXT    NOT NULL,
    link     TEXT    NOT NULL PRIMARY KEY
)`, s.table)
}

func (s *PostgresStore) selectQuery() (string, []any, error) {
	return s.psql.Select("title", "link").From(s.table).OrderBy("position").ToSql()
}

func (s *PostgresStore) insertQuery(notices []domain.Notice) (string, []any, error) {
	insert := s.psql.Insert(s.table).Columns("position", "title", "link")
	for i, n := range notices {
		insert = insert.Values(i, n.Title, n.Link)
	}
	return insert.ToSql()
}

// Load returns the rows ordered by their insertion position.
func (s *PostgresStore) Load(ctx context.Context) (*domain.AcceptedSet, error) {
	query, args, err := s.selectQuery()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accepted set: %w", err)
	}
	defer rows.Close()

	set := domain.NewAcceptedSet()
	for rows.Next() {
		var n domain.Notice
		if err := rows.Scan(&n.Title, &n.Link); err != nil {
			return nil, &domain.StoreCorruptError{Location: s.table, Err: err}
		}
		if n.Link == "" {
			return nil, &domain.StoreCorruptError{Location: s.table, Err: errors.New("row with empty link")}
		}
		set.Append(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return set, nil
}

// Save replaces the table contents with set inside one transaction.
func (s *PostgresStore) Save(ctx context.Context, set *domain.AcceptedSet) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	del, delArgs, err := s.psql.Delete(s.table).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err = tx.ExecContext(ctx, del, delArgs...); err != nil {
		return fmt.Errorf("clear accepted set: %w", err)
	}

	if notices := set.Notices(); len(notices) > 0 {
		query, args, buildErr := s.insertQuery(notices)
		if buildErr != nil {
			return fmt.Errorf("build insert: %w", buildErr)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert accepted set: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
