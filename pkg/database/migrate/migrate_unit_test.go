package migrate

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	migrateTestFileCount    = 4
	migrateTestSuccess      = "success"
	migrateTestFactoryError = "factory error"
)

// mockMigrator implements the migrator interface for testing.
type mockMigrator struct {
	upErr      error
	downErr    error
	stepsErr   error
	stepsArg   int
	versionVal uint
	dirty      bool
	versionErr error
}

func (m *mockMigrator) Up() error   { return m.upErr }
func (m *mockMigrator) Down() error { return m.downErr }
func (m *mockMigrator) Steps(n int) error {
	m.stepsArg = n
	return m.stepsErr
}
func (m *mockMigrator) Version() (version uint, dirty bool, err error) {
	return m.versionVal, m.dirty, m.versionErr
}

func useMigrator(t *testing.T, m migrator, err error) {
	t.Helper()
	orig := migratorFactory
	t.Cleanup(func() { migratorFactory = orig })
	migratorFactory = func(_ *sql.DB) (migrator, error) {
		return m, err
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, migrateTestFileCount)

	names := make(map[string]bool)
	for _, e := range entries {
		names[e.Name()] = true
	}
	for _, want := range []string{
		"000001_users.up.sql",
		"000001_users.down.sql",
		"000002_submissions.up.sql",
		"000002_submissions.down.sql",
	} {
		assert.True(t, names[want], "expected migration file %s to exist", want)
	}
}

func TestUsersMigration(t *testing.T) {
	up, err := migrations.ReadFile("migrations/000001_users.up.sql")
	require.NoError(t, err)
	sqlText := string(up)
	assert.Contains(t, sqlText, "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, sqlText, "UNIQUE (username)")
	for _, col := range []string{"id", "username", "password_hash", "created_at"} {
		assert.Contains(t, sqlText, col)
	}

	down, err := migrations.ReadFile("migrations/000001_users.down.sql")
	require.NoError(t, err)
	assert.Contains(t, string(down), "DROP TABLE IF EXISTS users")
}

func TestSubmissionsMigration(t *testing.T) {
	up, err := migrations.ReadFile("migrations/000002_submissions.up.sql")
	require.NoError(t, err)
	down, err := migrations.ReadFile("migrations/000002_submissions.down.sql")
	require.NoError(t, err)

	for _, table := range []string{"waitlist", "merchant_applications", "contact_sales", "contact_inquiries"} {
		assert.Contains(t, string(up), "CREATE TABLE IF NOT EXISTS "+table)
		assert.Contains(t, string(up), "idx_"+table+"_created_at")
		assert.Contains(t, string(down), "DROP TABLE IF EXISTS "+table)
	}
	assert.Contains(t, string(up), "message      TEXT,", "sales inquiry message is nullable")
}

func TestRun(t *testing.T) {
	t.Run(migrateTestSuccess, func(t *testing.T) {
		useMigrator(t, &mockMigrator{versionVal: 2}, nil)
		assert.NoError(t, Run(nil))
	})

	t.Run("no change is not an error", func(t *testing.T) {
		useMigrator(t, &mockMigrator{upErr: migrate.ErrNoChange, versionVal: 2}, nil)
		assert.NoError(t, Run(nil))
	})

	t.Run("up error", func(t *testing.T) {
		useMigrator(t, &mockMigrator{upErr: errors.New("up failed")}, nil)
		err := Run(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "running migrations")
	})

	t.Run(migrateTestFactoryError, func(t *testing.T) {
		useMigrator(t, nil, errors.New("factory failed"))
		err := Run(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "factory failed")
	})

	t.Run("version error", func(t *testing.T) {
		useMigrator(t, &mockMigrator{versionErr: errors.New("version failed")}, nil)
		err := Run(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting migration version")
	})

	t.Run("nil version is not an error", func(t *testing.T) {
		useMigrator(t, &mockMigrator{versionErr: migrate.ErrNilVersion}, nil)
		assert.NoError(t, Run(nil))
	})

	t.Run("dirty state is logged", func(t *testing.T) {
		useMigrator(t, &mockMigrator{versionVal: 2, dirty: true}, nil)
		assert.NoError(t, Run(nil))
	})
}

func TestVersion(t *testing.T) {
	useMigrator(t, &mockMigrator{versionVal: 2}, nil)
	version, dirty, err := Version(nil)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	useMigrator(t, nil, errors.New("factory failed"))
	_, _, err = Version(nil)
	assert.Error(t, err)
}

func TestDown(t *testing.T) {
	useMigrator(t, &mockMigrator{downErr: migrate.ErrNoChange}, nil)
	assert.NoError(t, Down(nil))

	useMigrator(t, &mockMigrator{downErr: errors.New("down failed")}, nil)
	err := Down(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rolling back migrations")
}

func TestSteps(t *testing.T) {
	m := &mockMigrator{}
	useMigrator(t, m, nil)
	require.NoError(t, Steps(nil, -1))
	assert.Equal(t, -1, m.stepsArg)

	useMigrator(t, &mockMigrator{stepsErr: errors.New("steps failed")}, nil)
	err := Steps(nil, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stepping migrations")
}
