package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suar-net/leadintake/internal/config"
)

func TestConfigurePool(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	configurePool(db, config.DBConfig{MaxOpenConns: 3, ConnMaxLifetime: time.Minute})
	assert.Equal(t, 3, db.Stats().MaxOpenConnections)

	configurePool(db, config.DBConfig{})
	assert.Equal(t, 10, db.Stats().MaxOpenConnections)
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	require.NoError(t, Ping(context.Background(), db))

	down := errors.New("db down")
	mock.ExpectPing().WillReturnError(down)
	assert.ErrorIs(t, Ping(context.Background(), db), down)
}
