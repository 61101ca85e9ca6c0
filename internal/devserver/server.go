// Package devserver emulates the main and LLM assessment backends for local
// development and end-to-end tests.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zuvy/assess/internal/coach"
	"github.com/zuvy/assess/internal/results"
)

// Options configures a Server. Zero values fall back to development defaults.
type Options struct {
	Addr        string
	JWTSecret   string
	AdminEmails []string
	// Language and Difficulty are stamped on generated questions.
	Language   string
	Difficulty string
	// EvaluateTimeout bounds how long a submit request waits for scoring.
	EvaluateTimeout time.Duration
	Kafka           *KafkaConfig
}

const (
	defaultAddr       = "127.0.0.1:8787"
	defaultJWTSecret  = "zuvy-dev-secret"
	defaultDifficulty = "Medium"
)

// Server serves both APIs from one gin engine.
type Server struct {
	addr            string
	repo            Repository
	coach           *coach.Coach
	tokens          *tokenService
	pipeline        *pipeline
	admins          map[string]bool
	language        string
	difficulty      string
	evaluateTimeout time.Duration
	logger          *slog.Logger
	engine          *gin.Engine

	baseCtx    context.Context
	cancel     context.CancelFunc
	background sync.WaitGroup
}

// New wires the server and starts the submission subscriber. Close releases
// it. c may have no provider, in which case questions and narratives come
// from the built-in bank and template.
func New(opts Options, repo Repository, c *coach.Coach, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = coach.New(nil, logger)
	}
	s := &Server{
		addr:            firstNonEmpty(opts.Addr, defaultAddr),
		repo:            repo,
		coach:           c,
		admins:          make(map[string]bool, len(opts.AdminEmails)),
		language:        firstNonEmpty(opts.Language, results.DefaultLanguage),
		difficulty:      firstNonEmpty(opts.Difficulty, defaultDifficulty),
		evaluateTimeout: opts.EvaluateTimeout,
		logger:          logger,
	}
	if s.evaluateTimeout <= 0 {
		s.evaluateTimeout = 2 * time.Minute
	}
	for _, e := range opts.AdminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			s.admins[e] = true
		}
	}
	s.tokens = &tokenService{
		secret: []byte(firstNonEmpty(opts.JWTSecret, defaultJWTSecret)),
		repo:   repo,
		now:    time.Now,
	}

	s.baseCtx, s.cancel = context.WithCancel(context.Background())
	s.pipeline = newPipeline(s.evaluateSubmission, logger)
	if opts.Kafka != nil && len(opts.Kafka.Brokers) > 0 {
		if err := s.pipeline.forwardToKafka(*opts.Kafka); err != nil {
			s.cancel()
			return nil, err
		}
	}
	if err := s.pipeline.start(s.baseCtx); err != nil {
		s.cancel()
		return nil, err
	}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), requestID(), requestLogger(logger))
	s.routes(s.engine)
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr is the listen address used by Run.
func (s *Server) Addr() string {
	return s.addr
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("dev server stopped")
	return nil
}

// Close stops background generation and the pipeline, then the repository.
func (s *Server) Close() error {
	s.cancel()
	s.background.Wait()
	err := s.pipeline.close()
	if rerr := s.repo.Close(); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

// WaitIdle blocks until background question generation has finished.
func (s *Server) WaitIdle() {
	s.background.Wait()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
