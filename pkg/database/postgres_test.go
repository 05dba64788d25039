package database

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/orderdesk/pkg/config"
)

func TestApplyPoolSettings(t *testing.T) {
	pc, err := pgxpool.ParseConfig("postgres://orderdesk:pw@localhost:5432/orderdesk?sslmode=disable")
	require.NoError(t, err)

	applyPoolSettings(pc, &config.DatabaseConfig{
		MaxConnections:   12,
		MaxConnLifetime:  2 * time.Hour,
		MaxConnIdleTime:  10 * time.Minute,
		StatementTimeout: 1500 * time.Millisecond,
	})

	assert.Equal(t, int32(12), pc.MaxConns)
	assert.Equal(t, 2*time.Hour, pc.MaxConnLifetime)
	assert.Equal(t, 10*time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, "1500", pc.ConnConfig.RuntimeParams["statement_timeout"])
	assert.Equal(t, ApplicationName, pc.ConnConfig.RuntimeParams["application_name"])
}

func TestApplyPoolSettings_ZeroKeepsDefaults(t *testing.T) {
	pc, err := pgxpool.ParseConfig("postgres://orderdesk:pw@localhost:5432/orderdesk?pool_max_conns=7")
	require.NoError(t, err)
	lifetime := pc.MaxConnLifetime

	applyPoolSettings(pc, &config.DatabaseConfig{})

	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, lifetime, pc.MaxConnLifetime)
	_, ok := pc.ConnConfig.RuntimeParams["statement_timeout"]
	assert.False(t, ok)
}
