package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/mailchat/internal/app"
	"github.com/nhle/mailchat/internal/chat"
	"github.com/nhle/mailchat/internal/credential"
	"github.com/nhle/mailchat/internal/logging"
	"github.com/nhle/mailchat/internal/model"
)

// options are the global flags.
type options struct {
	configPath string
	mode       string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "mailchat",
		Short: "Chat with your inbox",
		Long: `mailchat lists, summarizes, drafts replies to and deletes emails
through a conversation. Without a subcommand it opens the terminal UI.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", model.DefaultConfigPath(), "config file path")
	root.PersistentFlags().StringVar(&opts.mode, "mode", "", "email service mode: remote or local (overrides config)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides config)")

	root.AddCommand(newPlainCmd(opts), newServeCmd(opts), newTokenCmd())
	return root
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *options) (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.mode != "" {
		cfg.Service.Mode = opts.mode
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileLogger logs to cfg.Log.File, defaulting next to the config file,
// because the chat front ends own the terminal.
func fileLogger(cfg *model.AppConfig) (*zap.Logger, error) {
	path := cfg.Log.File
	if path == "" {
		path = filepath.Join(model.ConfigDir(), "mailchat.log")
	}
	return logging.New(logging.Config{Level: cfg.Log.Level, File: path})
}

// session is everything a chat front end needs.
type session struct {
	cfg     *model.AppConfig
	log     *zap.Logger
	service *app.Service
	exec    *chat.Executor
}

func (s *session) Close() {
	if err := s.service.Close(); err != nil {
		s.log.Warn("closing service", zap.Error(err))
	}
	_ = s.log.Sync()
}

// openSession loads config, credentials and the email service, and builds
// the executor with the configured status policy and timeout.
func openSession(opts *options) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	log, err := fileLogger(cfg)
	if err != nil {
		return nil, err
	}

	creds, err := credential.Open()
	if err != nil {
		return nil, err
	}

	svc, err := app.BuildService(cfg, creds, log)
	if err != nil {
		return nil, err
	}

	policy, err := chat.ParseStatusPolicy(cfg.Chat.StatusPolicy)
	if err != nil {
		return nil, err
	}

	exec := chat.New(svc, svc.Credential, chat.NewTranscript(), chat.Options{
		Policy:       policy,
		Instructions: cfg.Chat.Instructions,
		Timeout:      time.Duration(cfg.Chat.RequestTimeoutSec) * time.Second,
	})

	log.Info("session started",
		zap.String("mode", svc.Mode),
		zap.String("status_policy", cfg.Chat.StatusPolicy))

	return &session{cfg: cfg, log: log, service: svc, exec: exec}, nil
}

func runTUI(ctx context.Context, opts *options) error {
	s, err := openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := tea.NewProgram(app.New(ctx, s.exec, s.service.Mode, s.log.Named("tui")), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}
