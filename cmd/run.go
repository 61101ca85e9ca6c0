package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zuvy/assess/internal/api"
	"github.com/zuvy/assess/internal/app"
	"github.com/zuvy/assess/internal/coach"
	"github.com/zuvy/assess/internal/config"
	"github.com/zuvy/assess/internal/llm"
	"github.com/zuvy/assess/internal/screen"
	"github.com/zuvy/assess/internal/speech"
	"github.com/zuvy/assess/internal/store"
)

// backend adapts the API client to the screens.
type backend struct {
	*api.Client
}

func (b backend) Login(ctx context.Context, email, idToken string) (*screen.LoginResult, error) {
	resp, err := b.Client.Login(ctx, email, idToken)
	if err != nil {
		return nil, err
	}
	return &screen.LoginResult{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         resp.User,
	}, nil
}

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := &app.SessionEvents{}
	s, err := openSession(cmd, events)
	if err != nil {
		return err
	}
	defer s.Close()

	user, err := s.user(ctx)
	if err != nil {
		return err
	}
	bootcamp, _ := cmd.Flags().GetInt("bootcamp")

	deps := &screen.Deps{
		Backend:     backend{s.client},
		Credentials: s.store.CredentialRepo(),
		Submissions: s.store.SubmissionRepo(),
		Coach:       newCoach(ctx, s.cfg, s.store.EventRepo(), s.logger),
		Narrator:    newNarrator(s.cfg, s.logger),
		BootcampID:  bootcamp,
		ReportDir:   s.cfg.ReportDir,
		Logger:      s.logger,
	}
	s.logger.Info("starting", "version", version, "api_url", s.cfg.APIURL, "signed_in", user != nil)
	return app.Run(ctx, deps, user, events)
}

// newCoach wires the configured LLM provider. Without one, or when it
// cannot be built, narratives come from the offline template.
func newCoach(ctx context.Context, cfg *config.Config, rec store.EventRepo, logger *slog.Logger) *coach.Coach {
	if !cfg.LLMEnabled() {
		return coach.New(nil, logger)
	}
	provider, err := llm.NewProvider(ctx, cfg.LLM, rec, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Feedback will use the offline template.")
		logger.Warn("llm provider unavailable", "provider", cfg.LLM.Provider, "error", err)
		return coach.New(nil, logger)
	}
	return coach.New(provider, logger)
}

func newNarrator(cfg *config.Config, logger *slog.Logger) *speech.Narrator {
	engine, err := speech.DetectEngine(cfg.SpeechEngine)
	if err != nil {
		logger.Info("speech disabled", "engine", cfg.SpeechEngine, "error", err)
	}
	opts := speech.DefaultOptions()
	if cfg.SpeechVoice != "" {
		opts.Voice = cfg.SpeechVoice
	}
	return speech.NewNarrator(engine, opts, logger)
}
