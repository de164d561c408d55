// Package store persists check records.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bankrot-check/internal/components/telemetry"
	"bankrot-check/internal/record"
)

var ErrPersistence = errors.New("persistence failure")

// writeMutex serializes every read-modify-write against an output store in
// this process, across stores and backends.
var writeMutex sync.Mutex

var tracer = telemetry.Tracer("bankrot.store")

const report_store_append = "store.append"

// Store is an append-only destination for check records, safe for
// concurrent use.
type Store interface {
	Append(ctx context.Context, rec record.CheckRecord) error
	Close() error
}

type Kind string

const (
	KindXLSX   Kind = "xlsx"
	KindSQLite Kind = "sqlite"
)

// Open returns the store of the given kind at `location`, a file path for
// xlsx, a file path or libsql url for sqlite.
func Open(kind Kind, location string, tel telemetry.API) (Store, error) {
	switch kind {
	case KindXLSX, "":
		return NewXLSXStore(location, tel), nil
	case KindSQLite:
		return OpenSQLStore(location, tel)
	}
	return nil, fmt.Errorf("unknown store kind %q", kind)
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
