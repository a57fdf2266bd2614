// internal/animalid/animalid.go
package animalid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/models"
)

const (
	// Length is the fixed size of every code: 2 type letters, 8 date digits, 3 sequence digits.
	Length = 13

	dateLayout  = "20060102"
	maxSequence = 999
)

var typeCodes = map[models.AnimalType]string{
	models.AnimalTypeBuffalo: "BF",
	models.AnimalTypeChicken: "CK",
	models.AnimalTypeCow:     "CW",
	models.AnimalTypePig:     "PG",
	models.AnimalTypeHorse:   "HR",
}

// ErrSequenceExhausted is returned when a type already has 999 codes for the day.
var ErrSequenceExhausted = errors.New("animal id sequence exhausted for the day")

// Segment names the part of a code that failed validation.
type Segment string

const (
	SegmentLength   Segment = "length"
	SegmentType     Segment = "type"
	SegmentDate     Segment = "date"
	SegmentSequence Segment = "sequence"
)

type FormatError struct {
	Segment Segment
	Msg     string
}

func (e *FormatError) Error() string { return e.Msg }

// Parts is a decoded animal code.
type Parts struct {
	TypeCode string
	Date     time.Time
	Sequence int
}

// TypeCode returns the two-letter code for t.
func TypeCode(t models.AnimalType) (string, bool) {
	c, ok := typeCodes[t]
	return c, ok
}

// TypeFromCode returns the animal type encoded in the first two letters of code.
func TypeFromCode(code string) (models.AnimalType, bool) {
	if len(code) < 2 {
		return "", false
	}
	for t, c := range typeCodes {
		if c == code[:2] {
			return t, true
		}
	}
	return "", false
}

// Prefix is the type code followed by the UTC date of asOf.
func Prefix(t models.AnimalType, asOf time.Time) (string, error) {
	c, ok := TypeCode(t)
	if !ok {
		return "", apperrors.Validationf("animalType", "invalid animal type: %s", t)
	}
	return c + asOf.UTC().Format(dateLayout), nil
}

// Generate returns the next code for t on asOf's UTC date. existing may hold any
// codes of the farm; only those sharing the exact prefix affect the sequence.
func Generate(t models.AnimalType, existing []string, asOf time.Time) (string, error) {
	prefix, err := Prefix(t, asOf)
	if err != nil {
		return "", err
	}

	last := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, prefix) || len(id) < len(prefix)+3 {
			continue
		}
		suffix := id[len(id)-3:]
		if !digits(suffix) {
			continue
		}
		n, _ := strconv.Atoi(suffix)
		if n > last {
			last = n
		}
	}

	if last >= maxSequence {
		return "", ErrSequenceExhausted
	}
	return fmt.Sprintf("%s%03d", prefix, last+1), nil
}

// Validate checks that code is a well-formed code for t. Failures are validation
// errors wrapping a *FormatError.
func Validate(code string, t models.AnimalType) error {
	if err := check(code, t); err != nil {
		return &apperrors.Error{Kind: apperrors.KindValidation, Field: "animalId", Err: err}
	}
	return nil
}

func check(code string, t models.AnimalType) error {
	if len(code) != Length {
		return &FormatError{Segment: SegmentLength, Msg: fmt.Sprintf("Animal ID must be %d characters long", Length)}
	}
	want, ok := TypeCode(t)
	if !ok {
		return &FormatError{Segment: SegmentType, Msg: fmt.Sprintf("Unknown animal type %s", t)}
	}
	if got := code[:2]; got != want {
		return &FormatError{Segment: SegmentType, Msg: fmt.Sprintf("Expected type code %s but got %s", want, got)}
	}
	if !digits(code[2:10]) {
		return &FormatError{Segment: SegmentDate, Msg: "Invalid date format in animal ID"}
	}
	if !digits(code[10:]) {
		return &FormatError{Segment: SegmentSequence, Msg: "Invalid sequence format in animal ID"}
	}
	return nil
}

// Parse decodes a code without checking it against a particular type.
func Parse(code string) (Parts, bool) {
	if len(code) != Length || !digits(code[2:]) {
		return Parts{}, false
	}
	if _, ok := TypeFromCode(code); !ok {
		return Parts{}, false
	}
	d, err := time.Parse(dateLayout, code[2:10])
	if err != nil {
		return Parts{}, false
	}
	seq, _ := strconv.Atoi(code[10:])
	return Parts{TypeCode: code[:2], Date: d, Sequence: seq}, true
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
