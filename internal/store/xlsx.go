package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bankrot-check/internal/components/telemetry"
	"bankrot-check/internal/record"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/codes"
)

// SheetName is the sheet created in a new output workbook.
const SheetName = "Банкротство"

// FileName is the default name of an output workbook started at `t`.
func FileName(t time.Time) string {
	return fmt.Sprintf("bankrot_%s.xlsx", t.Format("2006-01-02_15-04-05"))
}

// XLSXStore appends records as rows of a workbook. The workbook is opened
// and saved on every append so a crash never loses written rows.
type XLSXStore struct {
	path string
	tel  telemetry.API
}

func NewXLSXStore(path string, tel telemetry.API) *XLSXStore {
	return &XLSXStore{
		path: path,
		tel:  telemetry.NewScopedAPI("xlsx_store", tel),
	}
}

func (s *XLSXStore) Path() string {
	return s.path
}

func (s *XLSXStore) Append(ctx context.Context, rec record.CheckRecord) error {
	_, span := tracer.Start(ctx, "xlsx:Append")
	defer span.End()

	writeMutex.Lock()
	defer writeMutex.Unlock()

	err := s.append(rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		s.tel.ReportBroken(report_store_append, err, s.path)
		return err
	}
	return nil
}

func (s *XLSXStore) append(rec record.CheckRecord) error {
	f, sheet, nextRow, err := s.load()
	if err != nil {
		return err
	}
	defer f.Close()

	if nextRow == 1 {
		err = setRow(f, sheet, 1, record.Header())
		if err != nil {
			return persistenceError("write header", err)
		}
		nextRow = 2
	}
	err = setRow(f, sheet, nextRow, rec.Values())
	if err != nil {
		return persistenceError("write row", err)
	}

	return s.save(f)
}

// load opens the workbook, or creates it with a single empty sheet, and
// returns the row the next record goes to.
func (s *XLSXStore) load() (*excelize.File, string, int, error) {
	_, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		f, err := newWorkbook()
		if err != nil {
			return nil, "", 0, persistenceError("create workbook", err)
		}
		return f, SheetName, 1, nil
	}
	if err != nil {
		return nil, "", 0, persistenceError("stat workbook", err)
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, "", 0, persistenceError("open workbook", err)
	}
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		sheet = f.GetSheetList()[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		f.Close()
		return nil, "", 0, persistenceError("read workbook", err)
	}
	return f, sheet, len(rows) + 1, nil
}

// newWorkbook creates a workbook whose only sheet is SheetName, the default
// sheet excelize starts with is removed.
func newWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(idx)

	for _, name := range f.GetSheetList() {
		if name == SheetName {
			continue
		}
		rows, err := f.GetRows(name)
		if err != nil || len(rows) > 0 {
			continue
		}
		err = f.DeleteSheet(name)
		if err != nil {
			f.Close()
			return nil, err
		}
	}

	idx, err = f.GetSheetIndex(SheetName)
	if err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(idx)
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// save writes the workbook to a temporary file, syncs it and renames it over
// the output file.
func (s *XLSXStore) save(f *excelize.File) error {
	dir := filepath.Dir(s.path)
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return persistenceError("create output dir", err)
	}

	tmp, err := os.CreateTemp(dir, ".bankrot-*.xlsx")
	if err != nil {
		return persistenceError("create temp file", err)
	}
	defer os.Remove(tmp.Name())

	err = tmp.Chmod(0644)
	if err != nil {
		tmp.Close()
		return persistenceError("chmod temp file", err)
	}

	_, err = f.WriteTo(tmp)
	if err != nil {
		tmp.Close()
		return persistenceError("write workbook", err)
	}
	err = tmp.Sync()
	if err != nil {
		tmp.Close()
		return persistenceError("sync workbook", err)
	}
	err = tmp.Close()
	if err != nil {
		return persistenceError("close workbook", err)
	}

	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		return persistenceError(fmt.Sprintf("rename to %s", s.path), err)
	}
	return nil
}

func (s *XLSXStore) Close() error {
	return nil
}
