package main

import (
	"context"
	"flag"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidolearn/kidolearn-api/internal/config"
	"github.com/kidolearn/kidolearn-api/internal/logger"
	"github.com/kidolearn/kidolearn-api/internal/repository/postgres"
	"github.com/kidolearn/kidolearn-api/internal/service"
)

// digest mails every parent a screen-time summary. Run it from cron,
// weekly in production.
func main() {
	days := flag.Int("days", 7, "Length of the usage window in days")
	dryRun := flag.Bool("dry-run", false, "Render digests and log instead of sending")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Setup(cfg.LogLevel, cfg.Environment)

	if *days < 1 {
		log.Fatal().Int("days", *days).Msg("days must be positive")
	}

	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	repos := postgres.NewRepositories(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	email, err := service.NewEmailService(ctx, cfg.DigestFromEmail, cfg.DigestFromName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize email service")
	}

	digest := service.NewDigestService(repos, email, cfg.AppBaseURL)
	sent, err := digest.Run(ctx, *days, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("digest run failed")
	}

	log.Info().Int("sent", sent).Int("days", *days).Bool("dryRun", *dryRun).Msg("digest run complete")
}
