package editor

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rpupo63/portfolio-backend/errs"
)

// Validatable is a child item that knows its own required fields.
type Validatable interface {
	Validate() error
}

// List is an editable child collection. The whole list is submitted on save.
type List[T Validatable] []T

// Add appends item if it passes validation.
func (l *List[T]) Add(item T) error {
	if err := item.Validate(); err != nil {
		return err
	}
	*l = append(*l, item)
	return nil
}

// Update replaces the item at index i in place.
func (l *List[T]) Update(i int, item T) error {
	if i < 0 || i >= len(*l) {
		return fmt.Errorf("update %d of %d: %w", i, len(*l), errs.ErrIndexOutOfRange)
	}
	if err := item.Validate(); err != nil {
		return err
	}
	(*l)[i] = item
	return nil
}

// Remove deletes the item at index i, keeping the order of the rest.
func (l *List[T]) Remove(i int) error {
	if i < 0 || i >= len(*l) {
		return fmt.Errorf("remove %d of %d: %w", i, len(*l), errs.ErrIndexOutOfRange)
	}
	*l = append((*l)[:i], (*l)[i+1:]...)
	return nil
}

func (l List[T]) Len() int { return len(l) }

// check validates every item, reporting problems as "field[i]".
func (l List[T]) check(fe FieldErrors, field string) {
	for i, item := range l {
		if err := item.Validate(); err != nil {
			fe.Add(fmt.Sprintf("%s[%d]", field, i), err.Error())
		}
	}
}

var errBlank = errors.New("value is required")

// Technology is a single technology tag.
type Technology string

func (t Technology) Validate() error {
	if strings.TrimSpace(string(t)) == "" {
		return errBlank
	}
	return nil
}

// Achievement is a single key achievement line.
type Achievement string

func (a Achievement) Validate() error {
	if strings.TrimSpace(string(a)) == "" {
		return errBlank
	}
	return nil
}

// Tag is a single blog tag.
type Tag string

func (t Tag) Validate() error {
	if strings.TrimSpace(string(t)) == "" {
		return errBlank
	}
	return nil
}

type Milestone struct {
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Completed   bool   `json:"completed"`
}

func (m Milestone) Validate() error {
	if strings.TrimSpace(m.Description) == "" {
		return errors.New("description is required")
	}
	fe := FieldErrors{}
	fe.checkDate("due_date", m.DueDate)
	if msg, ok := fe["due_date"]; ok {
		return errors.New(msg)
	}
	return nil
}

type Challenge struct {
	Description string `json:"description"`
}

func (c Challenge) Validate() error {
	if strings.TrimSpace(c.Description) == "" {
		return errors.New("description is required")
	}
	return nil
}

type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

func (r Resource) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	return validateURL(r.URL)
}

type Image struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

func (i Image) Validate() error {
	return validateURL(i.URL)
}

func validateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme == "" && !strings.HasPrefix(raw, "/")) {
		return errors.New("url must be absolute or start with /")
	}
	return nil
}
