package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suar-net/leadintake/internal/config"
	"github.com/suar-net/leadintake/internal/model"
	"github.com/suar-net/leadintake/internal/notify"
	"github.com/suar-net/leadintake/internal/ratelimit"
	"github.com/suar-net/leadintake/internal/service"
	"github.com/suar-net/leadintake/pkg/logging"
)

func TestBuildSinks_LogOnly(t *testing.T) {
	s, err := buildSinks(context.Background(), &config.Config{}, logging.NewNop())
	require.NoError(t, err)
	defer s.Close()

	fanout, ok := s.Acceptor.(service.MultiAcceptor)
	require.True(t, ok)
	require.Len(t, fanout, 1)
	assert.IsType(t, service.LogAcceptor{}, fanout[0])
	assert.IsType(t, &ratelimit.MemoryStats{}, s.Stats)
	assert.Nil(t, s.DB)
}

func TestBuildSinks_EmailNeedsRecipient(t *testing.T) {
	cfg := &config.Config{Email: config.EmailConfig{SendGridAPIKey: "test-key", FromEmail: "leads@example.com"}}

	s, err := buildSinks(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	assert.Len(t, s.Acceptor.(service.MultiAcceptor), 1)

	cfg.Email.NotifyTo = "sales@example.com"
	s, err = buildSinks(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	fanout := s.Acceptor.(service.MultiAcceptor)
	require.Len(t, fanout, 2)
	assert.IsType(t, &notify.LeadNotifier{}, fanout[1])
}

func TestBuildSinks_NotifyWithoutAPIKeyOnlyLogs(t *testing.T) {
	cfg := &config.Config{Email: config.EmailConfig{NotifyTo: "sales@example.com"}}

	s, err := buildSinks(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	fanout := s.Acceptor.(service.MultiAcceptor)
	require.Len(t, fanout, 2)

	lead := &model.Lead{ID: "lead-1"}
	assert.NoError(t, fanout.Accept(context.Background(), lead))
}

func TestBuildSinks_RedisStats(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{Redis: config.RedisConfig{Addr: mr.Addr()}}

	s, err := buildSinks(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer s.Close()

	require.IsType(t, &ratelimit.RedisStats{}, s.Stats)
	require.NoError(t, s.Stats.Record(context.Background(), ratelimit.Decision{Identity: "x", Allowed: true}))
	assert.True(t, mr.Exists(s.Stats.(*ratelimit.RedisStats).TotalKey()))
}

func TestBuildSinks_RedisUnreachable(t *testing.T) {
	cfg := &config.Config{Redis: config.RedisConfig{Addr: "127.0.0.1:1"}}

	_, err := buildSinks(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}
