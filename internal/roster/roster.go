package roster

import (
	"errors"
	"fmt"
	"strings"

	"bankrot-check/pkg/textutil"

	"github.com/antzucaro/matchr"
	"github.com/xuri/excelize/v2"
)

var (
	ErrIncorrectColumns = errors.New("incorrect columns in input file")
	ErrEmptyRoster      = errors.New("incorrect input: no person information")
)

type nameField int

const (
	fieldLastName nameField = iota
	fieldFirstName
	fieldMiddleName
)

var fieldLabels = []struct {
	field nameField
	label string
}{
	{fieldLastName, "фамилия"},
	{fieldFirstName, "имя"},
	{fieldMiddleName, "отчество"},
}

// minHeaderSimilarity is the Jaro-Winkler score a header needs to be accepted
// when it does not contain a known label.
const minHeaderSimilarity = 0.9

// matchHeader maps a header cell to the name field it holds.
func matchHeader(header string) (nameField, bool) {
	normalized := textutil.NormalizeName(header)
	if normalized == "" {
		return 0, false
	}
	for _, fl := range fieldLabels {
		if strings.Contains(normalized, fl.label) || strings.Contains(fl.label, normalized) {
			return fl.field, true
		}
	}

	best := -1.0
	var bestField nameField
	for _, fl := range fieldLabels {
		sim := matchr.JaroWinkler(normalized, fl.label, false)
		if sim > best {
			best = sim
			bestField = fl.field
		}
	}
	if best >= minHeaderSimilarity {
		return bestField, true
	}
	return 0, false
}

// Load reads subjects from the active sheet of a spreadsheet. The first row
// is the header, rows without a last or first name are skipped.
func Load(path string) ([]Subject, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read roster sheet %q: %w", sheet, err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]Subject, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyRoster
	}

	columns := map[int]nameField{}
	for i, header := range rows[0] {
		if strings.TrimSpace(header) == "" {
			continue
		}
		field, ok := matchHeader(header)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrIncorrectColumns, header)
		}
		columns[i] = field
	}

	var subjects []Subject
	for _, row := range rows[1:] {
		var parts [3]string
		for i, cell := range row {
			field, ok := columns[i]
			if !ok {
				continue
			}
			parts[field] = cell
		}
		subject, err := NewSubject(parts[fieldLastName], parts[fieldFirstName], parts[fieldMiddleName])
		if errors.Is(err, ErrIncompleteName) {
			continue
		}
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}

	if len(subjects) == 0 {
		return nil, ErrEmptyRoster
	}
	return subjects, nil
}
