package app

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/mailchat/internal/ai"
	"github.com/nhle/mailchat/internal/backend"
	"github.com/nhle/mailchat/internal/credential"
	"github.com/nhle/mailchat/internal/mailbox"
	"github.com/nhle/mailchat/internal/mailservice"
	"github.com/nhle/mailchat/internal/mailservice/httpclient"
	"github.com/nhle/mailchat/internal/model"
	"github.com/nhle/mailchat/internal/store"
)

// Credentials looks up secrets by key name. credential.Store satisfies it.
type Credentials interface {
	Get(key string) (string, error)
}

// Service is the email service the chat drives, plus the credential it
// attaches to every call.
type Service struct {
	mailservice.Service
	Credential string
	Mode       string

	closers []func() error
}

// Close releases resources held by a local backend.
func (s *Service) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// BuildService selects the email service for cfg.Service.Mode. In remote
// mode it talks to the REST backend; in local mode it runs the backend
// in-process.
func BuildService(cfg *model.AppConfig, creds Credentials, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}

	token, err := optional(creds, credential.KeyBearerToken)
	if err != nil {
		return nil, err
	}

	switch cfg.Service.Mode {
	case model.ServiceModeLocal:
		b, closeFn, err := BuildBackend(cfg, creds, log)
		if err != nil {
			return nil, err
		}
		return &Service{
			Service:    b,
			Credential: token,
			Mode:       model.ServiceModeLocal,
			closers:    []func() error{closeFn},
		}, nil

	default:
		if token == "" {
			log.Warn("no bearer token configured; requests will be unauthenticated",
				zap.String("hint", "run `mailchat token set`"))
		}
		client := httpclient.New(cfg.Service.BaseURL, log.Named("httpclient"))
		if cfg.Service.TimeoutSec > 0 {
			client.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Service.TimeoutSec) * time.Second,
			})
		}
		return &Service{
			Service:    client,
			Credential: token,
			Mode:       model.ServiceModeRemote,
		}, nil
	}
}

// BuildBackend wires the IMAP/SMTP mailbox, the AI engine and the summary
// cache into a backend. The returned func closes the cache.
func BuildBackend(cfg *model.AppConfig, creds Credentials, log *zap.Logger) (*backend.Backend, func() error, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Mailbox.IMAPHost == "" {
		return nil, nil, errors.New("mailbox.imap_host is not configured")
	}

	password, err := creds.Get(credential.KeyIMAPPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("loading IMAP password: %w", err)
	}
	apiKey, err := creds.Get(credential.KeyClaudeAPIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("loading Claude API key: %w", err)
	}

	mbCfg := mailbox.Config{
		IMAPHost:    cfg.Mailbox.IMAPHost,
		IMAPPort:    cfg.Mailbox.IMAPPort,
		SMTPHost:    cfg.Mailbox.SMTPHost,
		SMTPPort:    cfg.Mailbox.SMTPPort,
		Username:    cfg.Mailbox.Username,
		Password:    password,
		TLS:         cfg.Mailbox.TLS,
		TrashFolder: cfg.Mailbox.TrashFolder,
	}
	if mbCfg.SMTPHost == "" {
		mbCfg.SMTPHost = mbCfg.IMAPHost
	}

	cachePath := cfg.Mailbox.CachePath
	if cachePath == "" {
		cachePath = filepath.Join(model.ConfigDir(), "cache.db")
	}
	cache, err := store.NewSQLiteStore(cachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening summary cache: %w", err)
	}

	assistant := ai.New(ai.Config{
		APIKey:    apiKey,
		BaseURL:   cfg.AI.BaseURL,
		Model:     cfg.AI.Model,
		MaxTokens: cfg.AI.MaxTokens,
	})

	b := backend.New(
		mailbox.NewIMAPClient(mbCfg, log.Named("imap")),
		mailbox.NewSMTPSender(mbCfg),
		assistant,
		cache,
		backend.Options{RecentLimit: cfg.Mailbox.RecentLimit, Logger: log.Named("backend")},
	)
	return b, cache.Close, nil
}

// optional returns the secret for key, or "" when it is not stored.
func optional(creds Credentials, key string) (string, error) {
	v, err := creds.Get(key)
	if errors.Is(err, credential.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", key, err)
	}
	return v, nil
}
