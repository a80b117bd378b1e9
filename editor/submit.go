package editor

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/errs"
)

// Revalidator marks cached public pages stale. It must not block.
type Revalidator interface {
	Revalidate(paths ...string)
}

// Submission is one admin save or delete.
type Submission[T any] struct {
	// Key identifies the action, e.g. "update:project:12". Two submissions with
	// the same key never run concurrently.
	Key string
	// Redirect is where the client goes after success, usually the listing.
	Redirect string
	Save     func(ctx context.Context) (T, error)
	// Paths lists the public pages affected by the saved entity.
	Paths func(T) []string
}

type Result[T any] struct {
	Entity   T      `json:"entity"`
	Redirect string `json:"redirect"`
}

// Submitter runs admin submissions, rejecting duplicates that are still in
// flight and signalling revalidation after each success.
type Submitter struct {
	mu          sync.Mutex
	inFlight    map[string]struct{}
	revalidator Revalidator
}

func NewSubmitter(revalidator Revalidator) *Submitter {
	return &Submitter{
		inFlight:    make(map[string]struct{}),
		revalidator: revalidator,
	}
}

func (s *Submitter) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *Submitter) release(key string) {
	s.mu.Lock()
	delete(s.inFlight, key)
	s.mu.Unlock()
}

// InFlight reports whether a submission with key is running.
func (s *Submitter) InFlight(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inFlight[key]
	return busy
}

// Submit runs sub.Save unless the same key is already running, in which case it
// fails with ErrSubmissionInFlight. The revalidation signal is fire-and-forget:
// it never turns a successful save into a failure.
func Submit[T any](ctx context.Context, s *Submitter, sub Submission[T]) (Result[T], error) {
	if !s.acquire(sub.Key) {
		return Result[T]{}, errs.NewSubmissionInFlightError(sub.Key)
	}
	defer s.release(sub.Key)

	entity, err := sub.Save(ctx)
	if err != nil {
		log.Warn().Err(err).Str("key", sub.Key).Msg("admin submission failed")
		return Result[T]{}, err
	}

	if s.revalidator != nil && sub.Paths != nil {
		if paths := sub.Paths(entity); len(paths) > 0 {
			s.revalidator.Revalidate(paths...)
		}
	}

	return Result[T]{Entity: entity, Redirect: sub.Redirect}, nil
}
