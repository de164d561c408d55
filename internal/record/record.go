// Package record defines the row written for every checked subject.
package record

import (
	"fmt"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusNotFound
	StatusFound
	StatusError
)

var statusNames = map[Status][2]string{
	StatusNotFound: {"not_found", "Не найдено"},
	StatusFound:    {"found", "Успешно"},
	StatusError:    {"error", "Ошибка"},
}

// Code is the machine-readable status name.
func (s Status) Code() string {
	names, ok := statusNames[s]
	if !ok {
		return ""
	}
	return names[0]
}

// String returns the label written to the output store.
func (s Status) String() string {
	names, ok := statusNames[s]
	if !ok {
		return ""
	}
	return names[1]
}

// ParseStatus accepts either the status code or its label.
func ParseStatus(s string) (Status, error) {
	for status, names := range statusNames {
		if s == names[0] || s == names[1] {
			return status, nil
		}
	}
	return StatusUnknown, fmt.Errorf("unknown check status %q", s)
}

// CheckRecord is the canonical result of one subject's registry lookup.
type CheckRecord struct {
	LastName   string
	FirstName  string
	MiddleName string
	Category   string
	INN        string
	OGRNIP     string
	SNILS      string
	Region     string
	Address    string
	Status     Status
}

type column struct {
	key   string
	label string
	get   func(r *CheckRecord) string
	set   func(r *CheckRecord, v string)
}

// columns is the single declaration of the record's field set, in output
// order.
var columns = []column{
	{"last_name", "Фамилия", func(r *CheckRecord) string { return r.LastName }, func(r *CheckRecord, v string) { r.LastName = v }},
	{"first_name", "Имя", func(r *CheckRecord) string { return r.FirstName }, func(r *CheckRecord, v string) { r.FirstName = v }},
	{"middle_name", "Отчество", func(r *CheckRecord) string { return r.MiddleName }, func(r *CheckRecord, v string) { r.MiddleName = v }},
	{"category", "Категория", func(r *CheckRecord) string { return r.Category }, func(r *CheckRecord, v string) { r.Category = v }},
	{"inn", "ИНН", func(r *CheckRecord) string { return r.INN }, func(r *CheckRecord, v string) { r.INN = v }},
	{"ogrnip", "ОГРНИП", func(r *CheckRecord) string { return r.OGRNIP }, func(r *CheckRecord, v string) { r.OGRNIP = v }},
	{"snils", "СНИЛС", func(r *CheckRecord) string { return r.SNILS }, func(r *CheckRecord, v string) { r.SNILS = v }},
	{"region", "Регион", func(r *CheckRecord) string { return r.Region }, func(r *CheckRecord, v string) { r.Region = v }},
	{"address", "Адрес", func(r *CheckRecord) string { return r.Address }, func(r *CheckRecord, v string) { r.Address = v }},
	{"status", "Статус проверки", func(r *CheckRecord) string { return r.Status.String() }, nil},
}

// Header returns the column labels in declaration order.
func Header() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.label
	}
	return out
}

// Keys returns machine-readable column names in the same order as Header.
func Keys() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.key
	}
	return out
}

// Values returns the record's values in the same order as Header.
func (r CheckRecord) Values() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.get(&r)
	}
	return out
}

// Set assigns a registry field by its column label. It reports false for
// labels that are not part of the record or that cannot be set from text.
func (r *CheckRecord) Set(label, value string) bool {
	for _, c := range columns {
		if c.label == label && c.set != nil {
			c.set(r, value)
			return true
		}
	}
	return false
}

// FromValues is the inverse of Values.
func FromValues(values []string) (CheckRecord, error) {
	var r CheckRecord
	if len(values) != len(columns) {
		return r, fmt.Errorf("expected %d values, got %d", len(columns), len(values))
	}
	for i, c := range columns {
		if c.set == nil {
			continue
		}
		c.set(&r, values[i])
	}
	status, err := ParseStatus(values[len(values)-1])
	if err != nil {
		return r, err
	}
	r.Status = status
	return r, nil
}
