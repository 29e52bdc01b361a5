package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/users"
)

func testDatabase(t *testing.T) config.Database {
	return config.Database{
		Driver: config.DatabaseDriverSQLite,
		Path:   filepath.Join(t.TempDir(), "cli.db"),
	}
}

func TestCreateTablesCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := &CreateTablesCommand{Database: testDatabase(t), Out: &out}

	require.NoError(t, cmd.Run())
	assert.Contains(t, out.String(), "table books ready")
	assert.Contains(t, out.String(), "table audit_events ready")

	out.Reset()
	require.NoError(t, cmd.Run(), "second run leaves existing tables alone")
}

func TestCreateTablesCommand_BadDriver(t *testing.T) {
	cmd := &CreateTablesCommand{Database: config.Database{Driver: "postgres"}, Out: &bytes.Buffer{}}
	assert.Error(t, cmd.Run())
}

func TestCreateUserCommand(t *testing.T) {
	dbCfg := testDatabase(t)

	t.Run("password from flag", func(t *testing.T) {
		var out bytes.Buffer
		cmd := &CreateUserCommand{
			Name:     "alice",
			Password: "secret",
			Database: dbCfg,
			In:       strings.NewReader(""),
			Out:      &out,
		}
		require.NoError(t, cmd.Run())
		assert.Contains(t, out.String(), `Created user "alice"`)
	})

	t.Run("password from stdin", func(t *testing.T) {
		cmd := &CreateUserCommand{
			Name:     "bob",
			Database: dbCfg,
			Auth:     config.Auth{PasswordScheme: config.PasswordSchemeBcrypt, BcryptCost: 4},
			In:       strings.NewReader("hunter2\n"),
			Out:      &bytes.Buffer{},
		}
		require.NoError(t, cmd.Run())

		db, err := database.NewDatabase(dbCfg, database.Options{LogLevel: logger.Silent})
		require.NoError(t, err)
		defer db.Close()

		service := auth.NewService(users.NewRepository(db.DB), auth.BcryptHasher{Cost: 4})
		user, err := service.Authenticate("bob", "hunter2")
		require.NoError(t, err)
		assert.NotEqual(t, "hunter2", user.Password)
	})

	t.Run("duplicate name", func(t *testing.T) {
		cmd := &CreateUserCommand{
			Name:     "alice",
			Password: "other",
			Database: dbCfg,
			In:       strings.NewReader(""),
			Out:      &bytes.Buffer{},
		}
		err := cmd.Run()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("empty password is rejected", func(t *testing.T) {
		cmd := &CreateUserCommand{
			Name:     "carol",
			Database: dbCfg,
			In:       strings.NewReader("\n"),
			Out:      &bytes.Buffer{},
		}
		assert.ErrorIs(t, cmd.Run(), auth.ErrPasswordRequired)
	})
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand("1.2.3")

	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "create-tables", "create-user"})
	assert.Equal(t, "1.2.3", root.Version)

	dbPath := filepath.Join(t.TempDir(), "root.db")
	root.SetArgs([]string{"create-tables", "--db", dbPath})
	root.SetOut(&bytes.Buffer{})
	require.NoError(t, root.Execute())
	assert.FileExists(t, dbPath)
}
