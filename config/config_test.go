package config

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 10*time.Second, cfg.SlowQueryThreshold)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AcceptedOrigins)
	assert.Equal(t, "openai", cfg.ChatProvider)
	assert.Equal(t, "@every 30m", cfg.GitHubRefreshCron)
	assert.False(t, cfg.UseRedisCache())
	assert.False(t, cfg.AlertsEnabled())
	assert.False(t, cfg.RevalidationEnabled())
	assert.Empty(t, cfg.DSN())
}

func TestParse_Values(t *testing.T) {
	cfg, err := Parse(map[string]string{
		"ENV":               "production",
		"AUTH_JWT_SECRET":   "s3cret",
		"ACCEPTED_ORIGINS":  "https://a.dev,https://b.dev",
		"DB_REPLICA_URLS":   "postgres://r1,postgres://r2",
		"CACHE_TTL":         "90s",
		"CHAT_PROVIDER":     "anthropic",
		"ALERT_EMAILS":      "me@example.com",
		"RESEND_API_KEY":    "re_123",
		"RESEND_FROM_EMAIL": "alerts@example.com",
		"REVALIDATE_URL":    "https://site.dev/api/revalidate",
	})
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"https://a.dev", "https://b.dev"}, cfg.AcceptedOrigins)
	assert.Len(t, cfg.ReplicaURLs, 2)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.True(t, cfg.AlertsEnabled())
	assert.True(t, cfg.RevalidationEnabled())
	assert.True(t, cfg.AuthEnabled())
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse(map[string]string{"CHAT_PROVIDER": "cohere"})
	assert.Error(t, err)

	_, err = Parse(map[string]string{"ENV": "production"})
	assert.Error(t, err, "production needs admin auth")

	_, err = Parse(map[string]string{"CHAT_RPS": "fast"})
	assert.Error(t, err)

	_, err = Parse(map[string]string{"TRUSTED_PROXIES": "10.0.0.0/33"})
	assert.Error(t, err)
}

func TestTrustedProxyNets(t *testing.T) {
	cfg, err := Parse(map[string]string{"TRUSTED_PROXIES": "10.0.0.0/8, 192.0.2.1,2001:db8::1"})
	require.NoError(t, err)

	nets, err := cfg.TrustedProxyNets()
	require.NoError(t, err)
	require.Len(t, nets, 3)
	assert.True(t, nets[0].Contains(net.ParseIP("10.1.2.3")))
	assert.True(t, nets[1].Contains(net.ParseIP("192.0.2.1")))
	assert.False(t, nets[1].Contains(net.ParseIP("192.0.2.2")))
	assert.True(t, nets[2].Contains(net.ParseIP("2001:db8::1")))
}

func TestDSN(t *testing.T) {
	cfg := Config{
		SupabaseHost:     "db.example.com",
		SupabaseUser:     "postgres",
		SupabasePassword: "pw",
		SupabaseName:     "portfolio",
		SupabasePort:     "6543",
	}
	assert.Equal(t, "host=db.example.com user=postgres password=pw dbname=portfolio port=6543 sslmode=require", cfg.DSN())

	cfg.DatabaseURL = "postgres://localhost/portfolio"
	assert.Equal(t, "postgres://localhost/portfolio", cfg.DSN())
}

type fakeSSM struct {
	pages []*ssm.GetParametersByPathOutput
	calls int
}

func (f *fakeSSM) GetParametersByPath(ctx context.Context, in *ssm.GetParametersByPathInput, _ ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func TestFetchParameters(t *testing.T) {
	client := &fakeSSM{pages: []*ssm.GetParametersByPathOutput{
		{
			Parameters: []types.Parameter{
				{Name: aws.String("/portfolio/prod/openai-api-key"), Value: aws.String("sk-1")},
			},
			NextToken: aws.String("page-2"),
		},
		{
			Parameters: []types.Parameter{
				{Name: aws.String("/portfolio/prod/database.url"), Value: aws.String("postgres://ssm")},
			},
		},
	}}

	params, err := FetchParameters(context.Background(), client, "/portfolio/prod")
	require.NoError(t, err)

	assert.Equal(t, 2, client.calls)
	assert.Equal(t, map[string]string{
		"OPENAI_API_KEY": "sk-1",
		"DATABASE_URL":   "postgres://ssm",
	}, params)
}

func TestOverlay_EnvironmentWins(t *testing.T) {
	environ := map[string]string{"DATABASE_URL": "postgres://local", "PORT": ""}

	Overlay(environ, map[string]string{
		"DATABASE_URL":   "postgres://ssm",
		"PORT":           "9000",
		"OPENAI_API_KEY": "sk-1",
	})

	assert.Equal(t, "postgres://local", environ["DATABASE_URL"])
	assert.Equal(t, "9000", environ["PORT"])
	assert.Equal(t, "sk-1", environ["OPENAI_API_KEY"])
}

func TestParameterEnvName(t *testing.T) {
	assert.Equal(t, "REDIS_URL", ParameterEnvName("/a/b/redis-url"))
	assert.Equal(t, "PORT", ParameterEnvName("PORT"))
	assert.Equal(t, "GITHUB_TOKEN", ParameterEnvName("/a/github_token/"))
}
