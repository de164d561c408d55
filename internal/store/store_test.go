package store

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"bankrot-check/internal/components/telemetry"
	"bankrot-check/internal/record"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/xuri/excelize/v2"
)

func testRecord(i int) record.CheckRecord {
	return record.CheckRecord{
		LastName:  fmt.Sprintf("Иванов%d", i),
		FirstName: "Иван",
		Status:    record.StatusNotFound,
	}
}

func readWorkbook(t *testing.T, path string) ([]string, [][]string) {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Equal(t, []string{SheetName}, sheets)

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	return sheets, rows
}

// excelize drops trailing empty cells, pad rows back to the header width
func pad(row []string) []string {
	out := make([]string, len(record.Header()))
	copy(out, row)
	return out
}

func TestXLSXStoreSequential(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "bankrot.xlsx")
	store := NewXLSXStore(path, &telemetry.Recorder{})
	defer store.Close()

	const k = 5
	for i := 0; i < k; i++ {
		require.NoError(t, store.Append(context.Background(), testRecord(i)))
	}

	_, rows := readWorkbook(t, path)
	require.Len(t, rows, k+1)
	require.Equal(t, record.Header(), rows[0])
	for i := 0; i < k; i++ {
		if diff := cmp.Diff(testRecord(i).Values(), pad(rows[i+1])); diff != "" {
			t.Fatal(diff)
		}
	}
}

func TestXLSXStoreConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bankrot.xlsx")
	store := NewXLSXStore(path, &telemetry.Recorder{})

	const k = 20
	var wg sync.WaitGroup
	errs := make(chan error, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.Append(context.Background(), testRecord(i))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	_, rows := readWorkbook(t, path)
	require.Len(t, rows, k+1)
	require.Equal(t, record.Header(), rows[0])

	seen := map[string]bool{}
	for _, row := range rows[1:] {
		require.NotEqual(t, record.Header()[0], row[0])
		seen[row[0]] = true
	}
	require.Len(t, seen, k)
}

func TestXLSXStoreExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bankrot.xlsx")

	first := NewXLSXStore(path, &telemetry.Recorder{})
	require.NoError(t, first.Append(context.Background(), testRecord(0)))

	// a second run appends to the same file without writing the header again
	second := NewXLSXStore(path, &telemetry.Recorder{})
	require.NoError(t, second.Append(context.Background(), testRecord(1)))

	_, rows := readWorkbook(t, path)
	require.Len(t, rows, 3)
	require.Equal(t, "Иванов1", rows[2][0])
}

func TestXLSXStorePersistenceFailure(t *testing.T) {
	dir := t.TempDir()
	notADir := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0600))

	rec := &telemetry.Recorder{}
	store := NewXLSXStore(filepath.Join(notADir, "bankrot.xlsx"), rec)

	err := store.Append(context.Background(), testRecord(0))
	require.ErrorIs(t, err, ErrPersistence)
	require.Len(t, rec.Reports("broken"), 1)
}

// exerciseSQLStore appends concurrently, reads back, then reopens
// `location` and expects the rows to still be there.
func exerciseSQLStore(t *testing.T, location string) {
	t.Helper()

	store, err := OpenSQLStore(location, &telemetry.Recorder{})
	require.NoError(t, err)
	defer store.Close()

	const k = 10
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			require.NoError(t, store.Append(context.Background(), testRecord(i)))
		}(i)
	}
	wg.Wait()

	found := record.CheckRecord{LastName: "Петров", FirstName: "Сергей", INN: "1234", Status: record.StatusFound}
	require.NoError(t, store.Append(context.Background(), found))

	records, err := store.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, k+1)
	require.Equal(t, found, records[k])

	// reopening keeps existing rows
	require.NoError(t, store.Close())
	reopened, err := OpenSQLStore(location, &telemetry.Recorder{})
	require.NoError(t, err)
	defer reopened.Close()
	records, err = reopened.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, k+1)
}

func TestSQLStore(t *testing.T) {
	exerciseSQLStore(t, filepath.Join(t.TempDir(), "results.db"))
}

func TestSQLStoreLibsql(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a libsql-server container")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	sqld, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "ghcr.io/tursodatabase/libsql-server:latest",
				ExposedPorts: []string{"8080/tcp"},
				WaitingFor:   wait.ForHTTP("/health").WithPort("8080/tcp"),
			},
		},
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, sqld.Terminate(context.Background()))
	})

	host, err := sqld.Host(ctx)
	require.NoError(t, err)
	port, err := sqld.MappedPort(ctx, "8080/tcp")
	require.NoError(t, err)

	location := fmt.Sprintf("http://%s:%s", host, port.Port())
	require.Equal(t, "libsql", driverFor(location))
	exerciseSQLStore(t, location)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(KindXLSX, filepath.Join(dir, "a.xlsx"), &telemetry.Recorder{})
	require.NoError(t, err)
	require.IsType(t, &XLSXStore{}, s)

	s, err = Open(KindSQLite, ":memory:", &telemetry.Recorder{})
	require.NoError(t, err)
	require.IsType(t, &SQLStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open("csv", filepath.Join(dir, "a.csv"), &telemetry.Recorder{})
	require.Error(t, err)
}

func TestDriverFor(t *testing.T) {
	require.Equal(t, "libsql", driverFor("libsql://db.turso.io?authToken=x"))
	require.Equal(t, "libsql", driverFor("http://127.0.0.1:8080"))
	require.Equal(t, "sqlite", driverFor("results.db"))
	require.Equal(t, "sqlite", driverFor(":memory:"))
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	require.Equal(t, "bankrot_2024-03-05_14-07-09.xlsx", FileName(at))
}
