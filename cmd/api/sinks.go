package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/suar-net/leadintake/internal/config"
	"github.com/suar-net/leadintake/internal/database"
	"github.com/suar-net/leadintake/internal/notify"
	"github.com/suar-net/leadintake/internal/ratelimit"
	"github.com/suar-net/leadintake/internal/repository"
	"github.com/suar-net/leadintake/internal/service"
	"github.com/suar-net/leadintake/pkg/logging"
)

// sinks holds the downstream collaborators chosen by configuration.
type sinks struct {
	Acceptor service.LeadAcceptor
	Stats    ratelimit.StatsRecorder
	DB       *sql.DB

	closers []func() error
}

func (s *sinks) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// buildSinks always logs leads; Postgres and email notifications join in
// when their settings are present. Limiter decisions are counted in Redis when
// it is configured and in memory otherwise.
func buildSinks(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*sinks, error) {
	s := &sinks{}
	fanout := service.MultiAcceptor{service.LogAcceptor{Logger: logger}}

	if cfg.DB.DSN != "" {
		db, err := database.ConnectDB(cfg.DB)
		if err != nil {
			return nil, err
		}
		s.DB = db
		s.closers = append(s.closers, db.Close)

		leads := repository.NewRepository(db).Lead()
		if err := leads.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		fanout = append(fanout, service.AcceptorFunc(leads.Create))
		logger.Infow("postgres lead sink enabled")
	}

	if cfg.Email.NotifyTo != "" {
		var sender notify.EmailSender = notify.NewLogSender(logger)
		if sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.Email.SendGridAPIKey,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
		}, logger); sg != nil {
			sender = sg
		} else {
			logger.Warnw("LEAD_NOTIFY_EMAIL set without SENDGRID_API_KEY, notifications are only logged")
		}
		notifier, err := notify.NewLeadNotifier(sender, cfg.Email.NotifyTo)
		if err != nil {
			s.Close()
			return nil, err
		}
		fanout = append(fanout, notifier)
		logger.Infow("lead notifications enabled", "to", cfg.Email.NotifyTo)
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			s.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.Stats = ratelimit.NewRedisStats(rdb)
		s.closers = append(s.closers, rdb.Close)
		logger.Infow("redis rate limit stats enabled", "addr", cfg.Redis.Addr)
	} else {
		s.Stats = ratelimit.NewMemoryStats()
	}

	s.Acceptor = fanout
	return s, nil
}
