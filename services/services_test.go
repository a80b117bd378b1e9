package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-backend/cache"
	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

func TestPaths(t *testing.T) {
	assert.Equal(t, []string{"/projects", "/projects/new-slug", "/projects/old-slug", "/home"},
		ProjectPaths(models.KindProject, "new-slug", "old-slug", "new-slug"))
	assert.Equal(t, []string{"/research", "/home"}, ProjectPaths(models.KindResearch, ""))
	assert.Equal(t, []string{"/blog", "/blog/hello", "/home"}, BlogPaths("hello"))
	assert.Equal(t, []string{"/skills", "/home"}, SkillPaths())
}

func TestRevalidator_PurgesCacheAndPostsWebhook(t *testing.T) {
	var mu sync.Mutex
	var got RevalidateRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	pageCache := cache.NewMemoryCache(time.Minute)
	ctx := context.Background()
	require.NoError(t, pageCache.Set(ctx, "/projects?sort=oldest", []byte("x"), 0))
	require.NoError(t, pageCache.Set(ctx, "/skills", []byte("y"), 0))

	r := NewRevalidator(srv.URL, "s3cret", pageCache)
	r.Revalidate(ProjectPaths(models.KindProject, "alpha")...)
	r.Wait()

	_, err := pageCache.Get(ctx, "/projects?sort=oldest")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
	_, err = pageCache.Get(ctx, "/skills")
	assert.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer s3cret", auth)
	assert.Equal(t, []string{"/projects", "/projects/alpha", "/home"}, got.Paths)
	assert.NotEmpty(t, got.ID)
}

func TestRevalidator_WebhookFailureIsSwallowed(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewRevalidator(srv.URL, "", nil)
	assert.NotPanics(t, func() { r.Revalidate("/blog") })
	r.Wait()
	assert.EqualValues(t, 1, calls.Load())
}

func TestRevalidator_DisabledWithoutURL(t *testing.T) {
	r := NewRevalidator("", "", nil)
	r.Revalidate("/blog")
	r.Wait()
}

func TestNotifier_SendsThroughResend(t *testing.T) {
	var got ResendEmailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = fmt.Fprint(w, `{"id":"email_1"}`)
	}))
	defer srv.Close()

	n := NewNotifier(&config.Config{
		ResendAPIKey:    "re_key",
		ResendFromEmail: "Site <alerts@example.com>",
		AlertEmails:     []string{"dev@example.com"},
	})
	n.endpoint = srv.URL
	require.True(t, n.Enabled())

	n.Alert("500 on /projects", "boom <script>")
	n.Wait()
	assert.Equal(t, []string{"dev@example.com"}, got.To)
	assert.Equal(t, "500 on /projects", got.Subject)
	assert.Contains(t, got.Html, "boom &lt;script&gt;")
}

func TestNotifier_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = fmt.Fprint(w, `{"message":"invalid from"}`)
	}))
	defer srv.Close()

	n := NewNotifier(&config.Config{ResendAPIKey: "k", ResendFromEmail: "f", AlertEmails: []string{"a@b.c"}})
	n.endpoint = srv.URL
	err := n.SendEmail(context.Background(), "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from")
}

func TestNotifier_DisabledIsNoop(t *testing.T) {
	n := NewNotifier(&config.Config{})
	assert.False(t, n.Enabled())
	n.Alert("s", "b")
	n.Wait()
}

func TestMarkdownRenderer(t *testing.T) {
	r := NewMarkdownRenderer()

	out, err := r.Render("# Title\n\n- [x] done\n\n<script>alert(1)</script>\n\n[link](https://example.com)")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, `href="https://example.com"`)
	assert.NotContains(t, out, "<script>")

	empty, err := r.Render("   ")
	require.NoError(t, err)
	assert.Equal(t, "", empty)
}

func githubServer(t *testing.T, fail *atomic.Bool, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	now := time.Now().UTC()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if fail.Load() {
			http.Error(w, `{"message":"API rate limit exceeded"}`, http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/users/octo/events/public":
			events := []map[string]interface{}{
				{"type": "PushEvent", "created_at": now.Format(time.RFC3339), "payload": map[string]interface{}{"size": 3}},
				{"type": "PushEvent", "created_at": now.AddDate(0, 0, -1).Format(time.RFC3339), "payload": map[string]interface{}{"commits": []interface{}{map[string]string{}, map[string]string{}}}},
				{"type": "PushEvent", "created_at": now.AddDate(0, 0, -90).Format(time.RFC3339), "payload": map[string]interface{}{"size": 50}},
				{"type": "WatchEvent", "created_at": now.Format(time.RFC3339), "payload": map[string]interface{}{}},
			}
			_ = json.NewEncoder(w).Encode(events)
		case "/users/octo/repos":
			repos := []map[string]interface{}{
				{"name": "b", "html_url": "https://github.com/octo/b", "language": "Go", "stargazers_count": 5},
				{"name": "a", "html_url": "https://github.com/octo/a", "language": "Go", "stargazers_count": 5},
				{"name": "c", "language": "TypeScript", "stargazers_count": 9},
				{"name": "forked", "language": "C", "stargazers_count": 100, "fork": true},
			}
			_ = json.NewEncoder(w).Encode(repos)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestGitHubActivity_Summary(t *testing.T) {
	var fail atomic.Bool
	var hits atomic.Int32
	srv := githubServer(t, &fail, &hits)
	defer srv.Close()

	g := NewGitHubActivity(context.Background(), "octo", "")
	g.baseURL = srv.URL

	s, err := g.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, s.EventsByType["PushEvent"])
	assert.Equal(t, 1, s.EventsByType["WatchEvent"])
	assert.Len(t, s.CommitsByDay, 30)
	assert.Equal(t, 5, s.TotalCommits)
	assert.Equal(t, 3, s.CommitsByDay[29].Count)
	assert.Equal(t, 19, s.TotalStars)
	assert.Equal(t, map[string]int{"Go": 2, "TypeScript": 1}, s.Languages)
	require.Len(t, s.TopRepositories, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{s.TopRepositories[0].Name, s.TopRepositories[1].Name, s.TopRepositories[2].Name})

	// cached
	before := hits.Load()
	_, err = g.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, hits.Load())
}

func TestGitHubActivity_KeepsLastSnapshotOnFailure(t *testing.T) {
	var fail atomic.Bool
	var hits atomic.Int32
	srv := githubServer(t, &fail, &hits)
	defer srv.Close()

	g := NewGitHubActivity(context.Background(), "octo", "token")
	g.baseURL = srv.URL

	first, err := g.Refresh(context.Background())
	require.NoError(t, err)

	fail.Store(true)
	again, err := g.Refresh(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, again)
}

func TestGitHubActivity_FailureWithoutSnapshot(t *testing.T) {
	var fail atomic.Bool
	var hits atomic.Int32
	fail.Store(true)
	srv := githubServer(t, &fail, &hits)
	defer srv.Close()

	g := NewGitHubActivity(context.Background(), "octo", "")
	g.baseURL = srv.URL

	_, err := g.Summary(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsUpstreamError(err))
}

func TestGitHubActivity_Disabled(t *testing.T) {
	g := NewGitHubActivity(context.Background(), "", "")
	_, err := g.Summary(context.Background())
	assert.True(t, errs.IsServiceUnavailableError(err))
}
