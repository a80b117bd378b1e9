package config

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Database
	DatabaseURL          string        `env:"DATABASE_URL"`
	SupabaseHost         string        `env:"SUPABASE_DB_HOST"`
	SupabaseUser         string        `env:"SUPABASE_DB_USER"`
	SupabasePassword     string        `env:"SUPABASE_DB_PASSWORD"`
	SupabaseName         string        `env:"SUPABASE_DB_NAME"`
	SupabasePort         string        `env:"SUPABASE_DB_PORT" envDefault:"5432"`
	ReplicaURLs          []string      `env:"DB_REPLICA_URLS" envSeparator:","`
	SlowQueryThreshold   time.Duration `env:"DB_SLOW_THRESHOLD" envDefault:"10s"`
	MigrateOnStart       bool          `env:"MIGRATE_ON_START" envDefault:"true"`
	GenerateModels       bool          `env:"GENERATE_MODELS" envDefault:"false"`
	GenerateColumnReport bool          `env:"GENERATE_COLUMN_REPORT" envDefault:"false"`

	// HTTP server
	ReadTimeoutSeconds  int      `env:"READ_TIMEOUT_SECONDS" envDefault:"180"`
	WriteTimeoutSeconds int      `env:"WRITE_TIMEOUT_SECONDS" envDefault:"180"`
	IdleTimeoutSeconds  int      `env:"IDLE_TIMEOUT_SECONDS" envDefault:"180"`
	AcceptedOrigins     []string `env:"ACCEPTED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// X-Forwarded-For is only believed when the peer is one of these IPs or CIDRs.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Admin authentication
	AuthJWTSecret    string `env:"AUTH_JWT_SECRET"`
	DescopeProjectID string `env:"DESCOPE_PROJECT_ID"`
	LoginURL         string `env:"LOGIN_URL" envDefault:"/login"`

	// Cache configuration
	RedisURL    string        `env:"REDIS_URL"`
	CachePrefix string        `env:"CACHE_PREFIX" envDefault:"portfolio:"`
	CacheTTL    time.Duration `env:"CACHE_TTL" envDefault:"10m"`

	// Revalidation webhook of the frontend
	RevalidateURL    string `env:"REVALIDATE_URL"`
	RevalidateSecret string `env:"REVALIDATE_SECRET"`

	// Fallback dataset
	AWSRegion        string `env:"AWS_REGION" envDefault:"us-east-1"`
	FallbackS3Bucket string `env:"FALLBACK_S3_BUCKET"`
	FallbackS3Key    string `env:"FALLBACK_S3_KEY" envDefault:"fallback.json"`

	// Chat
	ChatProvider     string  `env:"CHAT_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string  `env:"OPENAI_API_KEY"`
	OpenAIModel      string  `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	AnthropicAPIKey  string  `env:"ANTHROPIC_API_KEY"`
	AnthropicModel   string  `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-haiku-latest"`
	ChatSystemPrompt string  `env:"CHAT_SYSTEM_PROMPT"`
	ChatRPS          float64 `env:"CHAT_RPS" envDefault:"0.2"`
	ChatBurst        int     `env:"CHAT_BURST" envDefault:"5"`

	// GitHub activity feed
	GitHubUser        string `env:"GITHUB_USER"`
	GitHubToken       string `env:"GITHUB_TOKEN"`
	GitHubRefreshCron string `env:"GITHUB_REFRESH_CRON" envDefault:"@every 30m"`

	// Developer alerts
	ResendAPIKey    string   `env:"RESEND_API_KEY"`
	ResendFromEmail string   `env:"RESEND_FROM_EMAIL"`
	AlertEmails     []string `env:"ALERT_EMAILS" envSeparator:","`

	// SSMParameterPath, when set, overlays every parameter under the path onto the environment.
	SSMParameterPath string `env:"SSM_PARAMETER_PATH"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Addr returns the listen address of the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// DSN returns DATABASE_URL, or a connection string built from the SUPABASE_DB_* variables.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.SupabaseHost == "" {
		return ""
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
		c.SupabaseHost,
		c.SupabaseUser,
		c.SupabasePassword,
		c.SupabaseName,
		c.SupabasePort,
	)
}

func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

func (c Config) RevalidationEnabled() bool {
	return c.RevalidateURL != ""
}

func (c Config) AlertsEnabled() bool {
	return c.ResendAPIKey != "" && c.ResendFromEmail != "" && len(c.AlertEmails) > 0
}

func (c Config) AuthEnabled() bool {
	return c.AuthJWTSecret != "" || c.DescopeProjectID != ""
}

// TrustedProxyNets parses TRUSTED_PROXIES. A bare IP becomes a single-host network.
func (c Config) TrustedProxyNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(c.TrustedProxies))
	for _, entry := range c.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", entry)
			}
			bits := 8 * net.IPv6len
			if v4 := ip.To4(); v4 != nil {
				ip, bits = v4, 8*net.IPv4len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, block, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		nets = append(nets, block)
	}
	return nets, nil
}

// Load reads .env when present, overlays SSM parameters when SSM_PARAMETER_PATH
// is set, and parses the result.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("error loading .env file")
	}

	environ := New()
	if path := environ["SSM_PARAMETER_PATH"]; path != "" {
		client, err := newSSMClient(ctx, environ["AWS_REGION"])
		if err != nil {
			return nil, fmt.Errorf("creating ssm client: %w", err)
		}
		params, err := FetchParameters(ctx, client, path)
		if err != nil {
			return nil, err
		}
		Overlay(environ, params)
		log.Info().Int("parameters", len(params)).Str("path", path).Msg("loaded configuration from SSM")
	}

	return Parse(environ)
}

// Parse builds a Config from an explicit environment map.
func Parse(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ChatProvider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("CHAT_PROVIDER must be openai or anthropic, got %q", c.ChatProvider)
	}
	if c.ChatRPS <= 0 || c.ChatBurst < 1 {
		return fmt.Errorf("CHAT_RPS and CHAT_BURST must be positive")
	}
	if _, err := c.TrustedProxyNets(); err != nil {
		return err
	}
	if !c.IsDevelopment() && !c.AuthEnabled() {
		return fmt.Errorf("AUTH_JWT_SECRET or DESCOPE_PROJECT_ID is required outside development")
	}
	return nil
}

// New returns the process environment as a map.
func New() map[string]string {
	environ := os.Environ()
	envAsMap := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry != "" {
			key, value := split(entry)
			envAsMap[key] = value
		}
	}
	return envAsMap
}

// assumes entry is not the empty string
func split(entry string) (key, value string) {
	parts := strings.SplitN(entry, "=", 2)
	if len(parts) < 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
