package editor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

// FieldErrors maps a form field to a human readable problem.
type FieldErrors map[string]string

func (fe FieldErrors) Add(field, message string) {
	if _, exists := fe[field]; !exists {
		fe[field] = message
	}
}

// Err is nil when there are no field errors.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return errs.NewValidationError(fe)
}

func (fe FieldErrors) require(field, value string) {
	if strings.TrimSpace(value) == "" {
		fe.Add(field, field+" is required")
	}
}

// Numeric holds a number exactly as typed in the form. It decodes from either
// a JSON number or a JSON string so bad input reaches validation instead of
// failing the decode.
type Numeric string

func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Numeric(s)
		return nil
	}
	*n = Numeric(data)
	return nil
}

func (n Numeric) IsEmpty() bool {
	return strings.TrimSpace(string(n)) == ""
}

// Int parses n as a whole number.
func (n Numeric) Int() (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(string(n)))
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number", string(n))
	}
	return v, nil
}

func NumericOf(v int) Numeric {
	return Numeric(strconv.Itoa(v))
}

// checkInt validates n against [min, max]. Empty input is reported only when required.
func (fe FieldErrors) checkInt(field string, n Numeric, min, max int, required bool) {
	if n.IsEmpty() {
		if required {
			fe.Add(field, field+" is required")
		}
		return
	}
	v, err := n.Int()
	if err != nil {
		fe.Add(field, field+" must be a whole number")
		return
	}
	if v < min || v > max {
		fe.Add(field, fmt.Sprintf("%s must be between %d and %d", field, min, max))
	}
}

// checkDate validates an optional yyyy-MM-dd field and returns the parsed date.
func (fe FieldErrors) checkDate(field, value string) *models.Date {
	d, err := models.ParseOptionalDate(value)
	if err != nil {
		fe.Add(field, field+" must be a date formatted yyyy-MM-dd")
		return nil
	}
	return d
}

// optionalString maps blank input to nil.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
