package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	api "github.com/rpupo63/portfolio-backend/api"
	"github.com/rpupo63/portfolio-backend/cache"
	"github.com/rpupo63/portfolio-backend/chat"
	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/services"
)

func main() {
	fmt.Println("Initializing app...")

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	fallback := database.NewFallback(fallbackSources(ctx, cfg)...)

	var db *gorm.DB
	var currentDB database.Database

	db, err = database.Open(database.Options{
		DSN:           cfg.DSN(),
		ReplicaDSNs:   cfg.ReplicaURLs,
		SlowThreshold: cfg.SlowQueryThreshold,
	})
	if err != nil {
		if cfg.GenerateModels || cfg.GenerateColumnReport {
			log.Fatal().Err(err).Msg("model generation needs a database")
		}
		// Reads are served from the fallback dataset until a restart finds the database
		log.Error().Err(err).Msg("database unavailable, starting in fallback-only mode")
		currentDB = database.Unavailable(err).WithFallback(fallback)
	} else {
		defer database.Close(db)

		if cfg.MigrateOnStart {
			if err := database.Migrate(db); err != nil {
				log.Fatal().Err(err).Msg("error running migrations")
			}
		}

		// If generating models, run generation and exit
		if cfg.GenerateModels {
			log.Info().Msg("Generating models and query helpers...")
			models.GenerateModels(db)
			return
		}

		// If generating column mismatch report, run report and exit
		if cfg.GenerateColumnReport {
			log.Info().Msg("Generating column mismatch report...")
			models.GenerateColumnMismatchReportStandalone(db)
			return
		}

		currentDB = database.New(db).WithFallback(fallback)
	}

	pageCache := cache.New(cache.Options{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTL,
	})
	defer pageCache.Close()

	revalidator := services.NewRevalidator(cfg.RevalidateURL, cfg.RevalidateSecret, pageCache)
	if !cfg.RevalidationEnabled() {
		log.Info().Msg("REVALIDATE_URL not set, changes only purge the page cache")
	}
	notifier := services.NewNotifier(cfg)

	chatter, err := chat.NewChatter(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("error configuring chat provider")
	}
	var chatService *chat.Service
	if chatter != nil {
		chatService = chat.NewService(chatter, cfg.ChatSystemPrompt)
	} else {
		log.Warn().Msg("no chat provider key configured, /chat answers 503")
	}

	github := services.NewGitHubActivity(ctx, cfg.GitHubUser, cfg.GitHubToken)
	scheduler := cron.New()
	if github.Enabled() {
		if _, err := github.Schedule(scheduler, cfg.GitHubRefreshCron); err != nil {
			log.Fatal().Err(err).Str("spec", cfg.GitHubRefreshCron).Msg("invalid GITHUB_REFRESH_CRON")
		}
		scheduler.Start()
	}

	// Buffered so the server and signal goroutines never block after shutdown starts
	errChannel := make(chan error, 2)

	server, err := api.NewServer(cfg, currentDB,
		api.WithCache(pageCache),
		api.WithRevalidator(revalidator),
		api.WithNotifier(notifier),
		api.WithChatService(chatService),
		api.WithGitHubActivity(github),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)

	<-scheduler.Stop().Done()
	revalidator.Wait()
	notifier.Wait()
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// fallbackSources prefers the S3 dataset when a bucket is configured and always
// keeps the embedded dataset as the last resort.
func fallbackSources(ctx context.Context, cfg *config.Config) []database.Source {
	sources := []database.Source{}
	if cfg.FallbackS3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Warn().Err(err).Msg("aws config unavailable, using embedded fallback dataset only")
		} else {
			sources = append(sources, database.S3Source(s3.NewFromConfig(awsCfg), cfg.FallbackS3Bucket, cfg.FallbackS3Key))
		}
	}
	return append(sources, database.EmbeddedSource())
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
