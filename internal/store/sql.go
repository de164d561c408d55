package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bankrot-check/internal/components/telemetry"
	"bankrot-check/internal/record"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.opentelemetry.io/otel/codes"
	_ "modernc.org/sqlite"
)

const tableName = "check_results"

// SQLStore appends records to a table in a local sqlite database or a
// remote libsql database.
type SQLStore struct {
	db  *sql.DB
	tel telemetry.API
}

func driverFor(location string) string {
	for _, prefix := range []string{"libsql://", "http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(location, prefix) {
			return "libsql"
		}
	}
	return "sqlite"
}

func schema() string {
	var columns []string
	for _, key := range record.Keys() {
		columns = append(columns, fmt.Sprintf("%s TEXT NOT NULL", key))
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\tid INTEGER PRIMARY KEY AUTOINCREMENT,\n\tchecked_at INTEGER NOT NULL,\n\t%s\n);",
		tableName, strings.Join(columns, ",\n\t"),
	)
}

func insertStatement() string {
	keys := record.Keys()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)+1), ", ")
	return fmt.Sprintf(
		"INSERT INTO %s (checked_at, %s) VALUES (%s)",
		tableName, strings.Join(keys, ", "), placeholders,
	)
}

func OpenSQLStore(location string, tel telemetry.API) (*SQLStore, error) {
	driver := driverFor(location)
	db, err := sql.Open(driver, location)
	if err != nil {
		return nil, persistenceError("open database", err)
	}
	if driver == "sqlite" {
		// one connection, so `:memory:` databases are shared and writes
		// never contend for the file lock
		db.SetMaxOpenConns(1)
	}
	_, err = db.Exec(schema())
	if err != nil {
		db.Close()
		return nil, persistenceError("create table", err)
	}
	return &SQLStore{
		db:  db,
		tel: telemetry.NewScopedAPI("sql_store", tel),
	}, nil
}

func (s *SQLStore) Append(ctx context.Context, rec record.CheckRecord) error {
	ctx, span := tracer.Start(ctx, "sql:Append")
	defer span.End()

	writeMutex.Lock()
	defer writeMutex.Unlock()

	err := s.insert(ctx, rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		s.tel.ReportBroken(report_store_append, err)
		return err
	}
	return nil
}

func (s *SQLStore) insert(ctx context.Context, rec record.CheckRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistenceError("begin", err)
	}
	defer tx.Rollback()

	args := []any{time.Now().Unix()}
	for _, v := range rec.Values() {
		args = append(args, v)
	}
	_, err = tx.ExecContext(ctx, insertStatement(), args...)
	if err != nil {
		return persistenceError("insert", err)
	}
	err = tx.Commit()
	if err != nil {
		return persistenceError("commit", err)
	}
	return nil
}

// Records returns every stored record in insertion order.
func (s *SQLStore) Records(ctx context.Context) ([]record.CheckRecord, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY id",
		strings.Join(record.Keys(), ", "), tableName,
	))
	if err != nil {
		return nil, persistenceError("query", err)
	}
	defer rows.Close()

	var out []record.CheckRecord
	for rows.Next() {
		values := make([]string, len(record.Keys()))
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		err = rows.Scan(dest...)
		if err != nil {
			return nil, persistenceError("scan", err)
		}
		rec, err := record.FromValues(values)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
