package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pocket-university-api/pkg/config"
)

func TestNewSQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pocket.db")

	db, err := NewSQLite(config.LocalConfig{Path: path})
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.Get(&one, "SELECT 1"))
	assert.Equal(t, 1, one)
}

func TestNewSQLiteInMemory(t *testing.T) {
	db, err := NewSQLite(config.LocalConfig{Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestNewSQLiteRequiresPath(t *testing.T) {
	_, err := NewSQLite(config.LocalConfig{})
	require.Error(t, err)
}
