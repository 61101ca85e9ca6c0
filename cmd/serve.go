package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zuvy/assess/internal/devserver"
	"github.com/zuvy/assess/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local development backend for both assessment APIs",
	Long: `Run a local development backend that serves the main and LLM assessment
APIs. State lives in memory, or in Redis when ZUVY_REDIS_URL is set.
Submission events are also published to Kafka when ZUVY_KAFKA_BROKERS is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		// The server owns the terminal, so logs go to stderr unless a file is set.
		logger, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Path: cfg.LogFile})
		if err != nil {
			return err
		}
		defer closer.Close()

		flags := cmd.Flags()
		addr, _ := flags.GetString("addr")
		admins, _ := flags.GetStringSlice("admin")
		language, _ := flags.GetString("language")
		difficulty, _ := flags.GetString("difficulty")
		evalTimeout, _ := flags.GetDuration("evaluate-timeout")
		if addr == "" {
			addr = cfg.ServeAddr
		}

		var repo devserver.Repository
		if cfg.RedisURL != "" {
			r, err := devserver.NewRedisRepository(ctx, cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			repo = r
			logger.Info("using redis repository")
		} else {
			repo = devserver.NewMemoryRepository()
		}

		opts := devserver.Options{
			Addr:            addr,
			JWTSecret:       cfg.JWTSecret,
			AdminEmails:     admins,
			Language:        language,
			Difficulty:      difficulty,
			EvaluateTimeout: evalTimeout,
		}
		if len(cfg.KafkaBrokers) > 0 {
			opts.Kafka = &devserver.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic}
			logger.Info("forwarding submissions to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		}

		st, err := openStore(cmd)
		if err != nil {
			repo.Close()
			return err
		}
		defer st.Close()

		srv, err := devserver.New(opts, repo, newCoach(ctx, cfg, st.EventRepo(), logger), logger)
		if err != nil {
			repo.Close()
			return fmt.Errorf("start dev server: %w", err)
		}
		defer func() {
			if err := srv.Close(); err != nil {
				logger.Warn("dev server close", "error", err)
			}
		}()

		fmt.Fprintf(os.Stderr, "Serving both APIs on http://%s (Ctrl+C to stop)\n", srv.Addr())
		if len(admins) == 0 {
			logger.Warn("no --admin emails; nobody can create assessments")
		}
		logger.Info("dev server configured", slog.String("addr", srv.Addr()), slog.Bool("llm", cfg.LLMEnabled()))
		return srv.Run(ctx)
	},
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", "", "Listen address (defaults to ZUVY_SERVE_ADDR)")
	f.StringSlice("admin", nil, "Emails granted the admin role (repeatable)")
	f.String("language", "", "Language stamped on generated questions")
	f.String("difficulty", "", "Difficulty stamped on generated questions")
	f.Duration("evaluate-timeout", 2*time.Minute, "How long a submit waits for scoring")
}
