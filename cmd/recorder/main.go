package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/recorder/internal/config"
	"github.com/ehr/recorder/internal/domain/biospecimen"
	"github.com/ehr/recorder/internal/domain/patient"
	"github.com/ehr/recorder/internal/platform/auth"
	"github.com/ehr/recorder/internal/platform/blobstore"
	"github.com/ehr/recorder/internal/platform/db"
	"github.com/ehr/recorder/internal/platform/events"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recorder",
		Short:         "Breast cancer patient recorder and biospecimen research assistant",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("token", "", "Bearer token for the patient and query services (overrides AUTH_TOKEN)")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(consoleCmd())
	root.AddCommand(patientsCmd())
	root.AddCommand(askCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(tokenCmd())
	return root
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// app carries the loaded configuration and the logger shared by every
// command.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if tok, _ := cmd.Flags().GetString("token"); tok != "" {
		cfg.AuthToken = tok
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &app{cfg: cfg, logger: newLogger(cfg.Env)}, nil
}

// withCredential attaches the configured bearer token to ctx.
func (a *app) withCredential(ctx context.Context) context.Context {
	return auth.WithCredential(ctx, auth.Credential{Token: a.cfg.AuthToken})
}

// repository opens the store selected by PATIENT_STORE. The returned pool is
// nil unless the store is postgres; close releases whatever was opened.
func (a *app) repository(ctx context.Context) (repo patient.Repository, pool *pgxpool.Pool, closeFn func(), err error) {
	switch a.cfg.PatientStore {
	case config.StorePostgres:
		pool, err = db.NewPool(ctx, a.cfg.DatabaseURL, a.cfg.DBMaxConns, a.cfg.DBMinConns)
		if err != nil {
			return nil, nil, nil, err
		}
		return patient.NewPostgresRepository(pool), pool, pool.Close, nil
	case config.StoreRemote:
		return patient.NewRemoteRepository(a.cfg.PatientServiceURL, a.cfg.HTTPTimeout, a.logger), nil, func() {}, nil
	default:
		return patient.NewMemoryRepository(), nil, func() {}, nil
	}
}

func (a *app) queryClient() *biospecimen.Client {
	return biospecimen.NewClient(biospecimen.ClientConfig{
		BaseURL:     a.cfg.RAGBaseURL,
		StatusPath:  a.cfg.RAGStatusPath,
		QueryPath:   a.cfg.RAGQueryPath,
		ReadyValues: a.cfg.RAGReadyValues,
		TopResults:  a.cfg.RAGTopResults,
		Timeout:     a.cfg.HTTPTimeout,
	}, a.logger)
}

// publisher fans change events out to Kafka and/or a webhook, whichever are
// configured.
func (a *app) publisher() events.Publisher {
	var pubs events.Multi
	if len(a.cfg.KafkaBrokers) > 0 {
		a.logger.Info().Strs("brokers", a.cfg.KafkaBrokers).Str("topic", a.cfg.KafkaTopic).Msg("publishing patient events to kafka")
		pubs = append(pubs, events.NewKafkaPublisher(a.cfg.KafkaBrokers, a.cfg.KafkaTopic))
	}
	if a.cfg.WebhookURL != "" {
		a.logger.Info().Str("url", a.cfg.WebhookURL).Msg("publishing patient events to webhook")
		pubs = append(pubs, events.NewWebhookPublisher(a.cfg.WebhookURL, a.cfg.WebhookSecret, a.cfg.HTTPTimeout))
	}
	switch len(pubs) {
	case 0:
		return events.Nop{}
	case 1:
		return pubs[0]
	default:
		return pubs
	}
}

// exportStore picks S3 when a bucket is given, otherwise a local directory.
// Empty arguments fall back to EXPORT_S3_BUCKET and EXPORT_DIR.
func (a *app) exportStore(ctx context.Context, dir, bucket string) (blobstore.Store, error) {
	if bucket == "" {
		bucket = a.cfg.ExportS3Bucket
	}
	if bucket != "" {
		return blobstore.NewS3Store(ctx, bucket, a.cfg.ExportS3Prefix)
	}
	if dir == "" {
		dir = a.cfg.ExportDir
	}
	return blobstore.NewDirStore(dir), nil
}

func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
