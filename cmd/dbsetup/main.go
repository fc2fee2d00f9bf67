package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/kidolearn/kidolearn-api/internal/config"
	"github.com/kidolearn/kidolearn-api/internal/domain"
	"github.com/kidolearn/kidolearn-api/internal/logger"
	"github.com/kidolearn/kidolearn-api/internal/repository"
	"github.com/kidolearn/kidolearn-api/internal/repository/postgres"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.LogLevel, cfg.Environment)

	switch command {
	case "migrate":
		migrateCmd(cfg, args)
	case "seed":
		seedCmd(cfg, args)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Database Setup - Schema and fixture management

USAGE:
  dbsetup <command> [options]

COMMANDS:
  migrate   Apply the schema to the configured database
  seed      Load development fixtures from a YAML file
  help      Show this help message

ENVIRONMENT:
  DATABASE_URL          Postgres connection string
  IDENTITY_JWT_SECRET   Required by config loading (any value works here)

EXAMPLES:
  # Create or update all tables
  dbsetup migrate

  # Load the default fixture set
  dbsetup seed

  # Load a custom fixture file
  dbsetup seed --file=fixtures/demo.yaml`)
}

func migrateCmd(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	fs.Parse(args)

	// Opening the connection runs AutoMigrate for every model.
	if _, err := postgres.NewConnection(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("schema is up to date")
}

func seedCmd(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	file := fs.String("file", "fixtures/dev.yaml", "YAML fixture file to load")
	fs.Parse(args)

	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	repos := postgres.NewRepositories(db)

	fixtures, err := loadFixtures(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("failed to load fixtures")
	}

	created, err := seed(context.Background(), repos, fixtures)
	if err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	log.Info().
		Int("parents", created.parents).
		Int("children", created.children).
		Int("videos", created.videos).
		Str("file", *file).
		Msg("fixtures loaded")
}

type fixtureFile struct {
	Parents []fixtureParent `yaml:"parents"`
}

type fixtureParent struct {
	ExternalAuthID string         `yaml:"externalAuthId"`
	Email          string         `yaml:"email"`
	Name           string         `yaml:"name"`
	Children       []fixtureChild `yaml:"children"`
}

type fixtureChild struct {
	Name   string         `yaml:"name"`
	Videos []fixtureVideo `yaml:"videos"`
}

type fixtureVideo struct {
	VideoRef    string    `yaml:"videoRef"`
	Title       string    `yaml:"title"`
	ScheduledAt time.Time `yaml:"scheduledAt"`
}

type seedCounts struct {
	parents  int
	children int
	videos   int
}

func loadFixtures(path string) (*fixtureFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fixtures fixtureFile
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("failed to parse fixture file: %w", err)
	}
	for i, parent := range fixtures.Parents {
		if parent.ExternalAuthID == "" {
			return nil, fmt.Errorf("parents[%d] is missing externalAuthId", i)
		}
	}
	return &fixtures, nil
}

// seed is idempotent: parents match on external auth id, children on name
// within their parent, videos on ref and schedule time within their child.
// Re-running against a seeded database creates nothing.
func seed(ctx context.Context, repos *repository.Repositories, fixtures *fixtureFile) (seedCounts, error) {
	var counts seedCounts

	for _, fp := range fixtures.Parents {
		parent, err := repos.Parent.GetByExternalAuthID(ctx, fp.ExternalAuthID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			parent = &domain.Parent{
				ExternalAuthID: fp.ExternalAuthID,
				Email:          fp.Email,
				Name:           fp.Name,
			}
			if err := repos.Parent.Create(ctx, parent); err != nil {
				return counts, fmt.Errorf("failed to create parent %s: %w", fp.ExternalAuthID, err)
			}
			counts.parents++
		} else if err != nil {
			return counts, err
		}

		existing, err := repos.Child.GetByParentID(ctx, parent.ID)
		if err != nil {
			return counts, err
		}
		byName := make(map[string]*domain.Child, len(existing))
		for _, c := range existing {
			byName[c.Name] = c
		}

		for _, fc := range fp.Children {
			child, ok := byName[fc.Name]
			if !ok {
				child = &domain.Child{ParentID: parent.ID, Name: fc.Name}
				if err := repos.Child.Create(ctx, child); err != nil {
					return counts, fmt.Errorf("failed to create child %s: %w", fc.Name, err)
				}
				byName[fc.Name] = child
				counts.children++
			}

			n, err := seedVideos(ctx, repos.ScheduledVideo, child.ID, fc.Videos)
			if err != nil {
				return counts, err
			}
			counts.videos += n
		}
	}

	return counts, nil
}

func seedVideos(ctx context.Context, videos repository.ScheduledVideoRepository, childID uuid.UUID, fixtures []fixtureVideo) (int, error) {
	if len(fixtures) == 0 {
		return 0, nil
	}

	existing, err := videos.GetByChildID(ctx, childID, nil, nil, 500, 0)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(existing))
	for _, v := range existing {
		seen[videoKey(v.VideoRef, v.ScheduledAt)] = true
	}

	created := 0
	for _, fv := range fixtures {
		if seen[videoKey(fv.VideoRef, fv.ScheduledAt)] {
			continue
		}
		video := &domain.ScheduledVideo{
			ChildID:     childID,
			VideoRef:    fv.VideoRef,
			Title:       fv.Title,
			ScheduledAt: fv.ScheduledAt,
		}
		if err := videos.Create(ctx, video); err != nil {
			return created, fmt.Errorf("failed to create video %s: %w", fv.VideoRef, err)
		}
		created++
	}
	return created, nil
}

func videoKey(ref string, at time.Time) string {
	return ref + "|" + at.UTC().Format(time.RFC3339)
}
