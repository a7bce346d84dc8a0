package memory

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPostgresStore_Integration exercises the Postgres backend against a real database.
func TestPostgresStore_Integration(t *testing.T) {
	databaseURL := os.Getenv("SCENECRAFT_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("SCENECRAFT_TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewPostgresStore(ctx, databaseURL)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.InitSchema(ctx))

	// Unique words keep this run independent of rows left by earlier runs.
	marker := "zz" + uuid.NewString()[:8]
	both, err := store.Insert(ctx, &CreationRecord{OriginalPrompt: "mountain forest " + marker})
	require.NoError(t, err)
	markerOnly, err := store.Insert(ctx, &CreationRecord{OriginalPrompt: marker})
	require.NoError(t, err)

	results, err := store.QuerySimilar(ctx, "mountain "+marker, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, both, results[0].ID)
	assert.Equal(t, markerOnly, results[1].ID)

	got, err := store.Get(ctx, both)
	require.NoError(t, err)
	assert.Equal(t, "mountain forest "+marker, got.OriginalPrompt)

	tags, err := store.Tags(ctx, both)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"forest", "mountain", marker}, tags)

	_, err = store.Get(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}
