package registry

import (
	"fmt"
	"strings"

	"bankrot-check/internal/record"
	"bankrot-check/internal/roster"
	"bankrot-check/pkg/htmlutil"
	"bankrot-check/pkg/textutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	debtorsTableSelector = "table.bank#ctl00_cphBody_gvDebtors"
	debtorColumn         = "должник"
)

// ExtractRecord turns the debtors table of a result page into a record. It
// also returns the labels of columns the record has no field for.
func ExtractRecord(doc *goquery.Document, subject roster.Subject) (record.CheckRecord, []string, error) {
	table := doc.Find(debtorsTableSelector).First()
	if table.Length() == 0 {
		return record.CheckRecord{}, nil, fmt.Errorf("%w: no debtors table found in check response", ErrStructuralMismatch)
	}

	rows := table.Find("tr")
	switch rows.Length() {
	case 0:
		return record.CheckRecord{}, nil, fmt.Errorf("%w: no rows found in debtors table", ErrStructuralMismatch)
	case 1:
		return record.CheckRecord{
			LastName:   subject.LastName(),
			FirstName:  subject.FirstName(),
			MiddleName: subject.MiddleName(),
			Status:     record.StatusNotFound,
		}, nil, nil
	case 2:
		return extractMatch(rows.Eq(0), rows.Eq(1))
	}
	return record.CheckRecord{}, nil, fmt.Errorf(
		"%w: %d matches for an exact name query",
		ErrStructuralMismatch, rows.Length()-1,
	)
}

func extractMatch(headerRow, dataRow *goquery.Selection) (record.CheckRecord, []string, error) {
	rec := record.CheckRecord{Status: record.StatusFound}
	var ignored []string

	headers := headerRow.Find("th")
	cells := dataRow.Find("td")
	count := min(headers.Length(), cells.Length())

	for i := 0; i < count; i++ {
		label := htmlutil.CleanText(headers.Get(i))
		value := htmlutil.CleanText(cells.Get(i))
		if label == "" {
			continue
		}

		if strings.ToLower(label) == debtorColumn {
			err := setDebtorName(&rec, value)
			if err != nil {
				return record.CheckRecord{}, nil, err
			}
			continue
		}
		if !rec.Set(label, value) {
			ignored = append(ignored, label)
		}
	}

	return rec, ignored, nil
}

// setDebtorName splits "Фамилия Имя Отчество..." into the name fields, every
// part after the first name is the middle name.
func setDebtorName(rec *record.CheckRecord, name string) error {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return fmt.Errorf("%w: debtor name %q has no first name", ErrStructuralMismatch, name)
	}
	rec.LastName = textutil.Capitalize(parts[0])
	rec.FirstName = textutil.Capitalize(parts[1])
	rec.MiddleName = textutil.Capitalize(strings.Join(parts[2:], " "))
	return nil
}
