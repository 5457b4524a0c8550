package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := fromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "data/billing.db", cfg.SQLitePath)
	assert.Equal(t, 24*time.Hour, cfg.JWTAccessExpires)
	assert.Equal(t, "INV", cfg.InvoiceNumberPrefix)
	assert.True(t, cfg.MigrateOnStart)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("POSTGRES_DB_URL", "postgres://localhost/billing")
	t.Setenv("CLINIC_TIMEZONE", "Asia/Jakarta")
	t.Setenv("JWT_ACCESS_EXPIRATION", "30m")
	t.Setenv("INVOICE_NUMBER_PREFIX", "VET")

	cfg, err := fromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/billing", cfg.PostgresDBURL)
	assert.Equal(t, 30*time.Minute, cfg.JWTAccessExpires)
	assert.Equal(t, "VET", cfg.InvoiceNumberPrefix)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing jwt secret", env: map[string]string{}},
		{name: "unknown driver", env: map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "mysql"}},
		{name: "postgres without url", env: map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "postgres"}},
		{name: "unknown time zone", env: map[string]string{"JWT_SECRET": "s", "CLINIC_TIMEZONE": "Mars/Olympus"}},
		{name: "bad log level", env: map[string]string{"JWT_SECRET": "s", "LOG_LEVEL": "verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := fromViper(newViper())
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnvFallsBackInOrder(t *testing.T) {
	const key = "VETBILLING_DOTENV_SOURCE"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	projectRoot := t.TempDir()
	workDir := t.TempDir()
	rootEnv := filepath.Join(projectRoot, ".env")
	workEnv := filepath.Join(workDir, ".env")
	require.NoError(t, os.WriteFile(workEnv, []byte(key+"=workdir\n"), 0o600))

	// the project root has no .env yet, so the working directory one is used
	assert.Equal(t, workEnv, loadDotEnv(rootEnv, workEnv))
	assert.Equal(t, "workdir", os.Getenv(key))

	require.NoError(t, os.Unsetenv(key))
	require.NoError(t, os.WriteFile(rootEnv, []byte(key+"=root\n"), 0o600))
	assert.Equal(t, rootEnv, loadDotEnv(rootEnv, workEnv))
	assert.Equal(t, "root", os.Getenv(key))

	assert.Empty(t, loadDotEnv(filepath.Join(workDir, "missing.env")))
}

func TestLoadDotEnvKeepsExistingVariables(t *testing.T) {
	t.Setenv("INVOICE_NUMBER_PREFIX", "VET")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("INVOICE_NUMBER_PREFIX=ENV\n"), 0o600))

	assert.Equal(t, path, loadDotEnv(path))
	assert.Equal(t, "VET", os.Getenv("INVOICE_NUMBER_PREFIX"))
}

func TestDotEnvCandidatesEndWithWorkingDirectory(t *testing.T) {
	candidates := dotEnvCandidates()
	require.NotEmpty(t, candidates)
	assert.Equal(t, ".env", candidates[len(candidates)-1])
	if len(candidates) == 2 {
		assert.Equal(t, ".env", filepath.Base(candidates[0]))
		assert.True(t, filepath.IsAbs(candidates[0]))
	}
}
