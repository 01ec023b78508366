package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(*testing.T, Config)
	}{
		{
			name:    "missing database url",
			env:     map[string]string{"DATABASE_URL": ""},
			wantErr: true,
		},
		{
			name: "defaults",
			env:  map[string]string{"DATABASE_URL": "postgres://localhost/tasks"},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "5000", cfg.Port)
				assert.Equal(t, "postgres://localhost/tasks", cfg.DatabaseURL)
				assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
				assert.Equal(t, time.Hour, cfg.SweepInterval)
				assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"DATABASE_URL":    "postgres://db/tasks",
				"PORT":            "9090",
				"IDEMPOTENCY_TTL": "2h",
				"SWEEP_INTERVAL":  "30s",
			},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "9090", cfg.Port)
				assert.Equal(t, 2*time.Hour, cfg.IdempotencyTTL)
				assert.Equal(t, 30*time.Second, cfg.SweepInterval)
			},
		},
		{
			name: "bad duration",
			env: map[string]string{
				"DATABASE_URL":   "postgres://db/tasks",
				"SWEEP_INTERVAL": "soon",
			},
			wantErr: true,
		},
		{
			name: "negative duration",
			env: map[string]string{
				"DATABASE_URL":    "postgres://db/tasks",
				"IDEMPOTENCY_TTL": "-1h",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"DATABASE_URL", "PORT", "IDEMPOTENCY_TTL", "SWEEP_INTERVAL", "SHUTDOWN_TIMEOUT"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingDatabaseURL)
}
