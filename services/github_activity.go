package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/rpupo63/portfolio-backend/errs"
)

const (
	githubAPI          = "https://api.github.com"
	activityWindowDays = 30
	topRepositories    = 6
)

// ActivitySummary is the dashboard view of a GitHub account.
type ActivitySummary struct {
	User            string         `json:"user"`
	FetchedAt       time.Time      `json:"fetched_at"`
	EventsByType    map[string]int `json:"events_by_type"`
	CommitsByDay    []DayCount     `json:"commits_by_day"`
	TotalCommits    int            `json:"total_commits"`
	TopRepositories []RepoSummary  `json:"top_repositories"`
	Languages       map[string]int `json:"languages"`
	TotalStars      int            `json:"total_stars"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type RepoSummary struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
}

type githubEvent struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Payload   struct {
		Size    int               `json:"size"`
		Commits []json.RawMessage `json:"commits"`
	} `json:"payload"`
}

type githubRepo struct {
	Name        string `json:"name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stargazers_count"`
	Forks       int    `json:"forks_count"`
	Fork        bool   `json:"fork"`
}

// GitHubActivity keeps the last good summary of a user's public activity.
// Concurrent refreshes share one upstream fetch.
type GitHubActivity struct {
	user    string
	baseURL string
	client  *http.Client
	now     func() time.Time
	group   singleflight.Group

	mu       sync.RWMutex
	snapshot *ActivitySummary
}

// NewGitHubActivity authenticates with token when one is given and calls the
// API anonymously otherwise.
func NewGitHubActivity(ctx context.Context, user, token string) *GitHubActivity {
	client := &http.Client{Timeout: 20 * time.Second}
	if token != "" {
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
		client.Timeout = 20 * time.Second
	}
	return &GitHubActivity{user: user, baseURL: githubAPI, client: client, now: time.Now}
}

func (g *GitHubActivity) Enabled() bool {
	return g != nil && g.user != ""
}

// Summary returns the cached summary, fetching it on first use.
func (g *GitHubActivity) Summary(ctx context.Context) (*ActivitySummary, error) {
	if !g.Enabled() {
		return nil, errs.NewServiceUnavailableError("github activity")
	}
	g.mu.RLock()
	snapshot := g.snapshot
	g.mu.RUnlock()
	if snapshot != nil {
		return snapshot, nil
	}
	return g.Refresh(ctx)
}

// Refresh fetches a new summary. When the fetch fails the previous snapshot
// is kept and returned together with the error.
func (g *GitHubActivity) Refresh(ctx context.Context) (*ActivitySummary, error) {
	v, err, _ := g.group.Do("refresh", func() (interface{}, error) {
		summary, err := g.fetch(ctx)
		if err != nil {
			return nil, err
		}
		g.mu.Lock()
		g.snapshot = summary
		g.mu.Unlock()
		return summary, nil
	})
	if err != nil {
		g.mu.RLock()
		last := g.snapshot
		g.mu.RUnlock()
		if last != nil {
			log.Warn().Err(err).Str("user", g.user).Msg("github refresh failed, serving last snapshot")
			return last, nil
		}
		return nil, errs.NewUpstreamError("github", err)
	}
	return v.(*ActivitySummary), nil
}

// Schedule registers a refresh job on c.
func (g *GitHubActivity) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := g.Refresh(ctx); err != nil {
			log.Error().Err(err).Str("user", g.user).Msg("scheduled github refresh failed")
		}
	})
}

func (g *GitHubActivity) fetch(ctx context.Context) (*ActivitySummary, error) {
	user := url.PathEscape(g.user)

	var events []githubEvent
	if err := g.get(ctx, "/users/"+user+"/events/public?per_page=100", &events); err != nil {
		return nil, err
	}
	var repos []githubRepo
	if err := g.get(ctx, "/users/"+user+"/repos?per_page=100&sort=updated", &repos); err != nil {
		return nil, err
	}
	return summarize(g.user, g.now(), events, repos), nil
}

func (g *GitHubActivity) get(ctx context.Context, path string, into interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(g.baseURL, "/")+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("github request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("github API error (status %d) on %s: %s", resp.StatusCode, path, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decoding github response %s: %w", path, err)
	}
	return nil
}

func summarize(user string, now time.Time, events []githubEvent, repos []githubRepo) *ActivitySummary {
	now = now.UTC()
	s := &ActivitySummary{
		User:            user,
		FetchedAt:       now,
		EventsByType:    map[string]int{},
		Languages:       map[string]int{},
		TopRepositories: []RepoSummary{},
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	first := today.AddDate(0, 0, -(activityWindowDays - 1))
	counts := make(map[string]int, activityWindowDays)
	for _, e := range events {
		s.EventsByType[e.Type]++
		if e.Type != "PushEvent" || e.CreatedAt.UTC().Before(first) {
			continue
		}
		n := e.Payload.Size
		if n == 0 {
			n = len(e.Payload.Commits)
		}
		counts[e.CreatedAt.UTC().Format("2006-01-02")] += n
	}
	for d := first; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		s.CommitsByDay = append(s.CommitsByDay, DayCount{Date: key, Count: counts[key]})
		s.TotalCommits += counts[key]
	}

	owned := make([]githubRepo, 0, len(repos))
	for _, r := range repos {
		if r.Fork {
			continue
		}
		owned = append(owned, r)
		s.TotalStars += r.Stars
		if r.Language != "" {
			s.Languages[r.Language]++
		}
	}
	sort.SliceStable(owned, func(i, j int) bool {
		if owned[i].Stars != owned[j].Stars {
			return owned[i].Stars > owned[j].Stars
		}
		return owned[i].Name < owned[j].Name
	})
	if len(owned) > topRepositories {
		owned = owned[:topRepositories]
	}
	for _, r := range owned {
		s.TopRepositories = append(s.TopRepositories, RepoSummary{
			Name:        r.Name,
			URL:         r.HTMLURL,
			Description: r.Description,
			Language:    r.Language,
			Stars:       r.Stars,
			Forks:       r.Forks,
		})
	}
	return s
}
