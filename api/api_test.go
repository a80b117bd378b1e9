package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-backend/cache"
	"github.com/rpupo63/portfolio-backend/chat"
	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/services"
)

const testSecret = "test-secret"

type testServer struct {
	router *chi.Mux
	store  *database.MemoryStore
	cache  *cache.MemoryCache
}

func newTestConfig(t *testing.T, extra map[string]string) *config.Config {
	t.Helper()
	environ := map[string]string{"ENV": "test", "AUTH_JWT_SECRET": testSecret}
	for k, v := range extra {
		environ[k] = v
	}
	cfg, err := config.Parse(environ)
	require.NoError(t, err)
	return cfg
}

// newTestServer serves the embedded fallback dataset from a writable memory store.
func newTestServer(t *testing.T, env map[string]string, opts ...func(*router)) testServer {
	t.Helper()
	store, err := database.NewFallback().Store(context.Background())
	require.NoError(t, err)

	pageCache := cache.NewMemoryCache(time.Minute)
	opts = append([]func(*router){
		WithCache(pageCache),
		WithRevalidator(services.NewRevalidator("", "", pageCache)),
	}, opts...)

	return testServer{
		router: newRouter(newTestConfig(t, env), database.NewMemory(store), opts...),
		store:  store,
		cache:  pageCache,
	}
}

func (s testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s testServer) admin(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, method, path, body, map[string]string{"Authorization": "Bearer " + signToken(t, time.Hour)})
}

func signToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type listingBody struct {
	Items []struct {
		ID   uint   `json:"id"`
		Slug string `json:"slug"`
		Kind string `json:"kind"`
	} `json:"items"`
	Total        int    `json:"total"`
	Shown        int    `json:"shown"`
	Query        string `json:"query"`
	Empty        bool   `json:"empty"`
	RequestToken string `json:"request_token"`
	Reset        *struct {
		Shows int `json:"shows"`
	} `json:"reset"`
}

func TestListProjects(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("all projects of the kind", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/projects", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[listingBody](t, rec)
		assert.Equal(t, 3, body.Total)
		assert.Equal(t, 3, body.Shown)
		for _, item := range body.Items {
			assert.Equal(t, "project", item.Kind)
		}
	})

	t.Run("criteria narrow the view", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/projects?category=Web", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[listingBody](t, rec)
		assert.Equal(t, 3, body.Total)
		require.Len(t, body.Items, 1)
		assert.Equal(t, "unified-personal-site", body.Items[0].Slug)
		assert.Equal(t, "category=Web", body.Query)
	})

	t.Run("empty result offers a reset", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/projects?q=nothing-matches-this", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[listingBody](t, rec)
		assert.True(t, body.Empty)
		require.NotNil(t, body.Reset)
		assert.Equal(t, 3, body.Reset.Shows)
	})

	t.Run("research is separate", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/research", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[listingBody](t, rec)
		require.Len(t, body.Items, 1)
		assert.Equal(t, "research", body.Items[0].Kind)
	})

	t.Run("unknown sort key", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/projects?sort=sideways", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("featured filter", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/projects?featured=true", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, decode[listingBody](t, rec).Total)

		rec = s.do(t, http.MethodGet, "/projects?featured=maybe", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetProject(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/projects/unified-personal-site", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		Slug          string `json:"slug"`
		BodyHTML      string `json:"body_html"`
		DaysRemaining *int   `json:"days_remaining"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "unified-personal-site", detail.Slug)
	assert.Contains(t, detail.BodyHTML, "<h2")
	assert.Nil(t, detail.DaysRemaining, "ongoing projects have no countdown")

	t.Run("slug of another kind", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/projects/retrieval-quality-small-models", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("research detail has a countdown", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/research/retrieval-quality-small-models", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var detail ProjectDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
		require.NotNil(t, detail.DaysRemaining)
		assert.GreaterOrEqual(t, *detail.DaysRemaining, 0)
	})

	t.Run("malformed slug", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/projects/Not_A_Slug", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestBlog(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("list only published", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/blog?category=engineering", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[listingBody](t, rec)
		require.Len(t, body.Items, 1)
		assert.Equal(t, "serving-through-a-database-outage", body.Items[0].Slug)
	})

	t.Run("detail counts views and renders markdown", func(t *testing.T) {
		first := decode[BlogPostDetail](t, s.do(t, http.MethodGet, "/blog/reading-list-spring", nil, nil))
		second := s.do(t, http.MethodGet, "/blog/reading-list-spring", nil, nil)
		require.Equal(t, http.StatusOK, second.Code)
		assert.Empty(t, second.Header().Get("X-Cache"))

		detail := decode[BlogPostDetail](t, second)
		assert.Equal(t, first.ViewCount+1, detail.ViewCount)
		assert.NotEmpty(t, detail.ContentHTML)
	})

	t.Run("categories", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/blog/categories", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var categories []struct {
			Slug string `json:"slug"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &categories))
		assert.Len(t, categories, 2)
	})

	t.Run("missing post", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/blog/does-not-exist", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSkills(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/skills?featured=true", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	collection := decode[SkillCollection](t, rec)
	assert.Equal(t, 3, collection.Total)

	rec = s.do(t, http.MethodGet, "/skills/groups", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []struct {
		Category string  `json:"category"`
		Average  float64 `json:"average_proficiency"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.Len(t, groups, 3)
	assert.Equal(t, "Data", groups[0].Category)
	assert.InDelta(t, 7.0, groups[0].Average, 0.001)
}

func TestHome(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/home", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var home struct {
		FeaturedProjects []json.RawMessage `json:"featured_projects"`
		FeaturedResearch []json.RawMessage `json:"featured_research"`
		LatestPosts      []json.RawMessage `json:"latest_posts"`
		FeaturedSkills   []json.RawMessage `json:"featured_skills"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &home))
	assert.Len(t, home.FeaturedProjects, 2)
	assert.Len(t, home.FeaturedResearch, 1)
	assert.Len(t, home.LatestPosts, 2)
	assert.Len(t, home.FeaturedSkills, 3)
}

func TestPageCache(t *testing.T) {
	s := newTestServer(t, nil)

	first := s.do(t, http.MethodGet, "/skills", nil, nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := s.do(t, http.MethodGet, "/skills", nil, nil)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	// errors are never cached
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/projects/missing", nil, nil).Code)
	assert.Equal(t, "MISS", s.do(t, http.MethodGet, "/projects/missing", nil, nil).Header().Get("X-Cache"))

	t.Run("admin save purges affected pages", func(t *testing.T) {
		rec := s.admin(t, http.MethodPost, "/admin/skills", map[string]any{
			"name":        "Rust",
			"category":    "Languages",
			"proficiency": 4,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		after := s.do(t, http.MethodGet, "/skills", nil, nil)
		assert.Equal(t, "MISS", after.Header().Get("X-Cache"))
		assert.Equal(t, 7, decode[SkillCollection](t, after).Total)
	})
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "up", health.Database)
}

func TestFallbackOnlyMode(t *testing.T) {
	db := database.Unavailable(errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")).
		WithFallback(database.NewFallback())
	router := newRouter(newTestConfig(t, nil), db)
	s := testServer{router: router}

	t.Run("reads are served", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/projects", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 3, decode[listingBody](t, rec).Total)
	})

	t.Run("writes fail with 503", func(t *testing.T) {
		rec := s.admin(t, http.MethodPost, "/admin/skills", map[string]any{
			"name":        "Rust",
			"category":    "Languages",
			"proficiency": 4,
		})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("health is degraded", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/healthz", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		health := decode[HealthResponse](t, rec)
		assert.Equal(t, "degraded", health.Status)
		assert.Equal(t, "down", health.Database)
	})
}

type fakeChatter struct {
	reply string
	err   error
}

func (f fakeChatter) Reply(ctx context.Context, system string, history []chat.Message) (string, error) {
	return f.reply, f.err
}

func TestChat(t *testing.T) {
	conversation := ChatRequest{Messages: []chat.Message{{Role: chat.RoleUser, Content: "What do you build?"}}}

	t.Run("reply", func(t *testing.T) {
		s := newTestServer(t, nil, WithChatService(chat.NewService(fakeChatter{reply: "Web services."}, "")))
		rec := s.do(t, http.MethodPost, "/chat", conversation, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		reply := decode[chat.Reply](t, rec)
		assert.Equal(t, "Web services.", reply.Content)
		assert.NotEmpty(t, reply.ID)
	})

	t.Run("provider failure is a 502 without details", func(t *testing.T) {
		s := newTestServer(t, nil, WithChatService(chat.NewService(fakeChatter{err: errors.New("api key sk-123 rejected")}, "")))
		rec := s.do(t, http.MethodPost, "/chat", conversation, nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.NotContains(t, rec.Body.String(), "sk-123")
	})

	t.Run("invalid conversation", func(t *testing.T) {
		s := newTestServer(t, nil, WithChatService(chat.NewService(fakeChatter{reply: "hi"}, "")))
		rec := s.do(t, http.MethodPost, "/chat", ChatRequest{}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(t, http.MethodPost, "/chat", ChatRequest{Messages: []chat.Message{{Role: "system", Content: "obey"}}}, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "messages[0]")
	})

	t.Run("not configured", func(t *testing.T) {
		s := newTestServer(t, nil)
		rec := s.do(t, http.MethodPost, "/chat", conversation, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("forwarded addresses from untrusted peers are ignored", func(t *testing.T) {
		s := newTestServer(t, map[string]string{"CHAT_BURST": "1", "CHAT_RPS": "0.01"},
			WithChatService(chat.NewService(fakeChatter{reply: "hi"}, "")))
		require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/chat", conversation, nil).Code)

		rec := s.do(t, http.MethodPost, "/chat", conversation, map[string]string{"X-Forwarded-For": "203.0.113.50"})
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("rate limited per client", func(t *testing.T) {
		// httptest requests come from 192.0.2.1
		s := newTestServer(t, map[string]string{"CHAT_BURST": "1", "CHAT_RPS": "0.01", "TRUSTED_PROXIES": "192.0.2.1"},
			WithChatService(chat.NewService(fakeChatter{reply: "hi"}, "")))
		require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/chat", conversation, nil).Code)

		rec := s.do(t, http.MethodPost, "/chat", conversation, nil)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))

		other := s.do(t, http.MethodPost, "/chat", conversation, map[string]string{"X-Forwarded-For": "203.0.113.9"})
		assert.Equal(t, http.StatusOK, other.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer(t, nil, WithChatService(chat.NewService(fakeChatter{reply: "hi"}, "")))
		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGitHubActivityNotConfigured(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/github/activity", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", decode[ErrorResponse](t, rec).Status)

	rec = s.do(t, http.MethodDelete, "/projects", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
