package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Creates the vector extension", func(t *testing.T) {
		require.NoError(t, Init(db))

		var exists bool
		err := db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector');").Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "pgvector extension should be created")
	})

	t.Run("Is idempotent", func(t *testing.T) {
		assert.NoError(t, Init(db))
		assert.NoError(t, Init(db))
	})
}

func TestLoadSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	tests := []struct {
		name      string
		load      func(force bool) error
		functions []string
	}{
		{"nodes", func(force bool) error { return LoadNodesSql(db, force) }, NodesFunctions},
		{"edges", func(force bool) error { return LoadEdgesSql(db, force) }, EdgesFunctions},
	}

	for _, test := range tests {
		t.Run("Load "+test.name+" SQL functions", func(t *testing.T) {
			require.NoError(t, test.load(false))

			exist, err := db.CheckFunctions(test.functions)
			require.NoError(t, err)
			assert.True(t, exist)
		})

		t.Run("Load "+test.name+" SQL is idempotent without force", func(t *testing.T) {
			assert.NoError(t, test.load(false))
		})

		t.Run("Load "+test.name+" SQL with force reloads", func(t *testing.T) {
			require.NoError(t, test.load(true))

			exist, err := db.CheckFunctions(test.functions)
			require.NoError(t, err)
			assert.True(t, exist, "functions should exist after force reload")
		})
	}

	t.Run("Load all SQL", func(t *testing.T) {
		assert.NoError(t, LoadAllSql(db, true))
	})
}
