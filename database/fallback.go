package database

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/rpupo63/portfolio-backend/models"
)

//go:embed fallback_data.json
var embeddedFallback []byte

// Dataset is the static content served while the database is unreachable.
type Dataset struct {
	Projects       []models.Project      `json:"projects"`
	Research       []models.Project      `json:"research"`
	BlogPosts      []models.BlogPost     `json:"blog_posts"`
	BlogCategories []models.BlogCategory `json:"blog_categories"`
	Skills         []models.Skill        `json:"skills"`
}

// allProjects returns both lists with the kind forced by the list they came from.
func (d Dataset) allProjects() []models.Project {
	all := make([]models.Project, 0, len(d.Projects)+len(d.Research))
	for _, p := range d.Projects {
		p.Kind = models.KindProject
		all = append(all, p)
	}
	for _, p := range d.Research {
		p.Kind = models.KindResearch
		all = append(all, p)
	}
	return all
}

func DecodeDataset(r io.Reader) (Dataset, error) {
	var d Dataset
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Dataset{}, fmt.Errorf("decoding fallback dataset: %w", err)
	}
	return d, nil
}

// Source produces the raw fallback dataset.
type Source func(ctx context.Context) (io.ReadCloser, error)

// EmbeddedSource serves the dataset compiled into the binary.
func EmbeddedSource() Source {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(embeddedFallback)), nil
	}
}

// S3GetObjectAPI is the part of the S3 client the fallback needs.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads the dataset from bucket/key.
func S3Source(client S3GetObjectAPI, bucket, key string) Source {
	return func(ctx context.Context) (io.ReadCloser, error) {
		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err)
		}
		return out.Body, nil
	}
}

// Fallback lazily loads a Dataset into a MemoryStore. Concurrent first loads
// share one fetch; a failed load is retried on the next call.
type Fallback struct {
	sources []Source
	group   singleflight.Group

	mu    sync.RWMutex
	store *MemoryStore
}

// NewFallback tries sources in order until one decodes.
func NewFallback(sources ...Source) *Fallback {
	if len(sources) == 0 {
		sources = []Source{EmbeddedSource()}
	}
	return &Fallback{sources: sources}
}

func (f *Fallback) Store(ctx context.Context) (*MemoryStore, error) {
	f.mu.RLock()
	store := f.store
	f.mu.RUnlock()
	if store != nil {
		return store, nil
	}

	v, err, _ := f.group.Do("load", func() (interface{}, error) {
		store, err := f.load(ctx)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.store = store
		f.mu.Unlock()
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*MemoryStore), nil
}

func (f *Fallback) load(ctx context.Context) (*MemoryStore, error) {
	var lastErr error
	for i, source := range f.sources {
		body, err := source(ctx)
		if err != nil {
			log.Warn().Err(err).Int("source", i).Msg("fallback source unavailable")
			lastErr = err
			continue
		}
		data, err := DecodeDataset(body)
		_ = body.Close()
		if err != nil {
			log.Warn().Err(err).Int("source", i).Msg("fallback source unreadable")
			lastErr = err
			continue
		}
		log.Info().
			Int("projects", len(data.Projects)).
			Int("research", len(data.Research)).
			Int("blogPosts", len(data.BlogPosts)).
			Int("skills", len(data.Skills)).
			Msg("fallback dataset loaded")
		return NewMemoryStoreFrom(data), nil
	}
	return nil, fmt.Errorf("no fallback dataset available: %w", lastErr)
}
