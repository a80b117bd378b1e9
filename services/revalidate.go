package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/cache"
)

// RevalidateRequest is the payload posted to the frontend revalidation webhook.
type RevalidateRequest struct {
	ID    string   `json:"id"`
	Paths []string `json:"paths"`
}

// Revalidator tells the frontend and the page cache that public pages changed.
// Revalidate never blocks on the network and never returns an error: a failed
// delivery is logged and the pages refresh when their cache entries expire.
type Revalidator struct {
	url     string
	secret  string
	client  *http.Client
	cache   cache.Cache
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRevalidator returns a Revalidator. An empty url disables the webhook;
// a nil cache disables purging.
func NewRevalidator(url, secret string, pageCache cache.Cache) *Revalidator {
	return &Revalidator{
		url:     url,
		secret:  secret,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   pageCache,
		timeout: 10 * time.Second,
	}
}

// Revalidate purges cached responses under each path and notifies the webhook.
func (r *Revalidator) Revalidate(paths ...string) {
	if len(paths) == 0 {
		return
	}

	if r.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		for _, p := range paths {
			if err := r.cache.DeletePrefix(ctx, p); err != nil {
				log.Warn().Err(err).Str("path", p).Msg("failed to purge page cache")
			}
		}
		cancel()
	}

	if r.url == "" {
		return
	}

	req := RevalidateRequest{ID: uuid.NewString(), Paths: paths}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.deliver(ctx, req); err != nil {
			log.Error().Err(err).Str("revalidationId", req.ID).Strs("paths", paths).Msg("revalidation failed")
			return
		}
		log.Info().Str("revalidationId", req.ID).Strs("paths", paths).Msg("revalidation delivered")
	}()
}

func (r *Revalidator) deliver(ctx context.Context, payload RevalidateRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal revalidation payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create revalidation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.secret != "" {
		req.Header.Set("Authorization", "Bearer "+r.secret)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send revalidation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("revalidation webhook error (status %d): %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

// Wait blocks until every pending delivery has finished.
func (r *Revalidator) Wait() {
	r.wg.Wait()
}
