package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/mailchat/internal/api"
	"github.com/nhle/mailchat/internal/app"
	"github.com/nhle/mailchat/internal/credential"
	"github.com/nhle/mailchat/internal/logging"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the IMAP/SMTP backend over the REST API",
		Long: `serve runs the local backend and exposes it on the REST API the
remote mode talks to. Clients must send the bearer token stored with
"mailchat token set".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func runServe(ctx context.Context, opts *options, addr string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	log, err := logging.New(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	creds, err := credential.Open()
	if err != nil {
		return err
	}

	token, err := creds.Get(credential.KeyBearerToken)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return errors.New(`no bearer token stored; run "mailchat token set" first`)
		}
		return err
	}

	backend, closeFn, err := app.BuildBackend(cfg, creds, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			log.Warn("closing summary cache", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return api.Serve(ctx, api.Config{Addr: addr, Token: token}, backend, log)
}
