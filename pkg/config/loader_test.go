package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfigMergesEnvironmentOverBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "db:\n  host: localhost\n  port: 5432\nserver:\n  port: \":8080\"\n")
	writeFile(t, dir, "production.yaml", "db:\n  host: db.internal\n")

	var out struct {
		DB     DBConfig     `yaml:"db"`
		Server ServerConfig `yaml:"server"`
	}
	require.NoError(t, Decode("production", dir, &out))

	assert.Equal(t, "db.internal", out.DB.Host)
	assert.Equal(t, 5432, out.DB.Port)
	assert.Equal(t, ":8080", out.Server.Port)
}

func TestLoadConfigSubstitutesSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "jwt:\n  secret: ${JWT_SIGNING_KEY}\ndb:\n  password: ${ONBOARDING_TEST_UNSET}\n")
	writeFile(t, dir, "secrets.env", "# comment\nJWT_SIGNING_KEY=\"s3cret\"\n")

	cfg, err := LoadConfig("local", dir)
	require.NoError(t, err)

	jwt := cfg["jwt"].(map[string]interface{})
	assert.Equal(t, "s3cret", jwt["secret"])
	db := cfg["db"].(map[string]interface{})
	assert.Equal(t, "${ONBOARDING_TEST_UNSET}", db["password"])
}

func TestLoadConfigFallsBackToProcessEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "mq:\n  url: ${ONBOARDING_TEST_MQ}\n")
	t.Setenv("ONBOARDING_TEST_MQ", "amqp://guest:guest@mq:5672/")

	var out struct {
		MQ MQConfig `yaml:"mq"`
	}
	require.NoError(t, Decode("", dir, &out))
	assert.Equal(t, "amqp://guest:guest@mq:5672/", out.MQ.URL)
}

func TestLoadConfigRequiresBase(t *testing.T) {
	_, err := LoadConfig("local", t.TempDir())
	require.Error(t, err)
}

func TestDBConfigURLs(t *testing.T) {
	cfg := DBConfig{Host: "h", Port: 5432, User: "u", Password: "p", Name: "onboarding"}
	assert.Equal(t, "postgres://u:p@h:5432/onboarding?sslmode=disable", cfg.DSN())
	assert.Equal(t, "pgx5://u:p@h:5432/onboarding?sslmode=disable", cfg.MigrateURL())
}
