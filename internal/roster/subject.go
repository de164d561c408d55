package roster

import (
	"errors"
	"strings"

	"bankrot-check/pkg/textutil"
)

var ErrIncompleteName = errors.New("incorrect person information: no first name or last name")

// Subject is a person to be checked against the registry.
type Subject struct {
	lastName   string
	firstName  string
	middleName string
}

func normalizePart(s string) string {
	return textutil.Capitalize(strings.TrimSpace(s))
}

// NewSubject normalizes the name parts, last and first name are required.
func NewSubject(lastName, firstName, middleName string) (Subject, error) {
	s := Subject{
		lastName:   normalizePart(lastName),
		firstName:  normalizePart(firstName),
		middleName: normalizePart(middleName),
	}
	if s.lastName == "" || s.firstName == "" {
		return Subject{}, ErrIncompleteName
	}
	return s, nil
}

func (s Subject) LastName() string   { return s.lastName }
func (s Subject) FirstName() string  { return s.firstName }
func (s Subject) MiddleName() string { return s.middleName }

func (s Subject) FullName() string {
	if s.middleName == "" {
		return s.lastName + " " + s.firstName
	}
	return s.lastName + " " + s.firstName + " " + s.middleName
}

func (s Subject) String() string {
	return s.FullName()
}
