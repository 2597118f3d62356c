package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	t.Run("Invalid Connection", func(t *testing.T) {
		cfg := Config{
			Driver:         "mysql",
			Host:           "localhost",
			Port:           9999, // Unused port
			User:           "root",
			Password:       "wrongpassword",
			Name:           "disc3d",
			TimeoutSeconds: 2,
		}

		db, err := Connect(cfg)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("SQLite File", func(t *testing.T) {
		cfg := Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "ledger.db")}

		db, err := Connect(cfg)
		require.NoError(t, err)
		assert.Equal(t, "sqlite", db.Dialector.Name())
	})

	t.Run("Disabled", func(t *testing.T) {
		assert.False(t, Config{}.Enabled())
		_, err := Connect(Config{})
		assert.Error(t, err)
	})

	t.Run("Unknown Driver", func(t *testing.T) {
		_, err := Connect(Config{Driver: "postgres"})
		assert.ErrorContains(t, err, "postgres")
	})
}
