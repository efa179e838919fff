package api

import (
	"context"
	"fmt"
	"strings"

	"microblog/api/config"
	"microblog/api/controllers"
	"microblog/api/logger"
	"microblog/api/mailer"
	"microblog/api/security"

	"go.uber.org/zap"
)

// Bootstrap loads configuration and builds the process logger, with error
// alert mail wired in when SendGrid and admins are configured.
func Bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.BcryptCost > 0 {
		security.Cost = cfg.BcryptCost
	}

	log, err := logger.Init(cfg.ServiceName, cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.SendgridAPIKey != "" && len(cfg.Admins) > 0 {
		log = logger.WithErrorMail(log, &logger.ErrorMailer{
			Sender:  mailer.NewSendGrid(cfg.SendgridAPIKey, cfg.MailFrom, cfg.ServiceName),
			Admins:  cfg.Admins,
			Product: cfg.ServiceName,
			Link:    "http://localhost:" + cfg.Port,
		})
		logger.Log = log
	}
	return cfg, log, nil
}

// Run starts the HTTP API and blocks until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, log, err := Bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	server := controllers.Server{}
	if err := server.Initialize(ctx, cfg, log); err != nil {
		log.Error("initialize server", zap.Error(err))
		return err
	}

	addr := ":" + strings.TrimSpace(cfg.Port)
	return server.Run(ctx, addr)
}
