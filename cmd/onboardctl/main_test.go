package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding/internal/httpserver"
	"onboarding/pkg/rbac"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTokenCommandIssuesParsableToken(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte("jwt:\n  secret: cli-secret\n"), 0o600))
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("JWT_SECRET", "")

	user := uuid.New()
	out, err := run(t, "token", "--user", user.String(), "--role", rbac.RoleNewHire)
	require.NoError(t, err)

	id, role, err := httpserver.ParseToken(strings.TrimSpace(out), "cli-secret")
	require.NoError(t, err)
	assert.Equal(t, user, id)
	assert.Equal(t, rbac.RoleNewHire, role)
}

func TestProgressRecalcRejectsBadHireID(t *testing.T) {
	_, err := run(t, "progress", "recalc", "--hire", "not-a-uuid", "--template", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --hire")
}
