package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zuvy/assess/internal/api"
	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/config"
	"github.com/zuvy/assess/internal/logging"
	"github.com/zuvy/assess/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "zuvy",
	Short: "Adaptive assessments in the terminal",
	Long:  "zuvy: take AI-generated bootcamp assessments, review results and export reports from the terminal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides ZUVY_DB env var)")
	rootCmd.PersistentFlags().String("env-file", "", "Load settings from this .env file instead of ./.env")
	rootCmd.PersistentFlags().Int("bootcamp", 0, "Bootcamp ID used to filter assessments")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(assessmentsCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then ZUVY_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	return config.Load(envFile)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// session is what every backend-facing command needs: settings, the local
// store, a file logger and an API client whose tokens live in the store.
type session struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
	client *api.Client

	logCloser io.Closer
}

func openSession(cmd *cobra.Command, events api.SessionEvents) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, fmt.Errorf("resolve log path: %w", err)
	}
	logger, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Path: logPath})
	if err != nil {
		return nil, err
	}
	st, err := openStore(cmd)
	if err != nil {
		closer.Close()
		return nil, err
	}

	opts := []api.Option{
		api.WithTokenStore(api.NewStoredTokens(st.CredentialRepo())),
		api.WithRecorder(st.EventRepo()),
		api.WithLogger(logger),
		api.WithTimeout(cfg.Timeout),
	}
	if events != nil {
		opts = append(opts, api.WithSessionEvents(events))
	}
	return &session{
		cfg:       cfg,
		store:     st,
		logger:    logger,
		client:    api.New(cfg.APIURL, cfg.LLMAPIURL, opts...),
		logCloser: closer,
	}, nil
}

func (s *session) Close() {
	s.store.Close()
	s.logCloser.Close()
}

// user returns the signed-in user, or nil when signed out.
func (s *session) user(ctx context.Context) (*assessment.User, error) {
	creds, err := s.store.CredentialRepo().Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if creds == nil || creds.AccessToken == "" {
		return nil, nil
	}
	return &assessment.User{
		ID:        creds.UserID,
		Name:      creds.UserName,
		Email:     creds.UserEmail,
		RolesList: creds.Roles,
	}, nil
}

// requireUser is user but fails when signed out.
func (s *session) requireUser(ctx context.Context) (*assessment.User, error) {
	u, err := s.user(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("not signed in; run `zuvy login` first")
	}
	return u, nil
}
