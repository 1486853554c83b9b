package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dalemusser/strataboot/internal/app/bootstrap"
	"github.com/dalemusser/strataboot/internal/app/system/authutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestHashPassword_FromStdin(t *testing.T) {
	out, err := run(t, "correct-horse\n", "hash-password", "--cost", "4")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, authutil.CheckPassword("correct-horse", hash))
	assert.False(t, authutil.CheckPassword("wrong-horse", hash))
}

func TestHashPassword_FromFlag(t *testing.T) {
	out, err := run(t, "", "hash-password", "--password", "battery-staple", "--cost", "4")
	require.NoError(t, err)
	assert.True(t, authutil.CheckPassword("battery-staple", strings.TrimSpace(out)))
}

func TestHashPassword_RejectsWeak(t *testing.T) {
	_, err := run(t, "", "hash-password", "--password", "short")
	require.Error(t, err)
	assert.ErrorIs(t, err, authutil.ErrPasswordTooShort)

	out, err := run(t, "", "hash-password", "--password", "short", "--force", "--cost", "4")
	require.NoError(t, err)
	assert.True(t, authutil.CheckPassword("short", strings.TrimSpace(out)))
}

func TestHashPassword_NoInput(t *testing.T) {
	_, err := run(t, "", "hash-password")
	assert.Error(t, err)
}

func TestMigrate_RejectsBadVersionBeforeConnecting(t *testing.T) {
	for _, args := range [][]string{
		{"migrate", "goto", "abc"},
		{"migrate", "force", "-3"},
		{"migrate", "goto"},
		{"migrate", "up", "extra"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := run(t, "", args...)
			assert.Error(t, err)
		})
	}
}

func TestMigrate_InvalidURI(t *testing.T) {
	_, err := run(t, "", "migrate", "version", "--mongo-uri", "not-a-uri")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid MongoDB URI")
}

func TestMigrate_List(t *testing.T) {
	out, err := run(t, "", "migrate", "list")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("7")
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = parseVersion("x")
	assert.Error(t, err)
}

func migrateUpCmd(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	up, _, err := newRootCmd().Find([]string{"migrate", "up"})
	require.NoError(t, err)
	require.NoError(t, up.ParseFlags(flags))
	return up
}

func TestMigrateConfig_FollowsAppSettings(t *testing.T) {
	t.Setenv(bootstrap.ProfileEnvVar, "Development")
	t.Setenv("STRATABOOT_MONGO_DATABASE", "appdb")
	t.Setenv("STRATABOOT_MIGRATIONS_COLLECTION", "app_migrations")

	s, err := migrateConfig(migrateUpCmd(t))
	require.NoError(t, err)
	assert.Equal(t, "appdb", s.Database)
	assert.Equal(t, "app_migrations", s.Collection)
	assert.Equal(t, "mongodb://localhost:27017", s.URI)
}

func TestMigrateConfig_ProfileDefaults(t *testing.T) {
	t.Setenv(bootstrap.ProfileEnvVar, "Testing")

	s, err := migrateConfig(migrateUpCmd(t))
	require.NoError(t, err)
	assert.Equal(t, "strataboot_test", s.Database)
	assert.Equal(t, "schema_migrations", s.Collection)
}

func TestMigrateConfig_FlagsWin(t *testing.T) {
	t.Setenv(bootstrap.ProfileEnvVar, "")
	t.Setenv("STRATABOOT_MONGO_DATABASE", "appdb")

	s, err := migrateConfig(migrateUpCmd(t, "--database", "flagdb", "--collection", "flag_migrations"))
	require.NoError(t, err)
	assert.Equal(t, "flagdb", s.Database)
	assert.Equal(t, "flag_migrations", s.Collection)
}

func TestMigrateConfig_UnknownProfile(t *testing.T) {
	t.Setenv(bootstrap.ProfileEnvVar, "Staging")

	_, err := migrateConfig(migrateUpCmd(t))
	var pe *bootstrap.UnknownProfileError
	assert.ErrorAs(t, err, &pe)
}
