package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPrepareRecord(t *testing.T) {
	rec := &CreationRecord{OriginalPrompt: "sunlit meadow"}
	require.NoError(t, prepareRecord(rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.Timestamp.IsZero())

	keep := &CreationRecord{ID: "given", OriginalPrompt: "sunlit meadow"}
	require.NoError(t, prepareRecord(keep))
	assert.Equal(t, "given", keep.ID)

	assert.ErrorIs(t, prepareRecord(&CreationRecord{}), ErrEmptyPrompt)
}

func TestProperty_QuerySimilar_Reflexive(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rapid.Check(t, func(rt *rapid.T) {
		words := rapid.SliceOfN(rapid.StringMatching(`[a-z]{4,9}`), 1, 6).Draw(rt, "words")
		prompt := strings.Join(words, " ")

		id, err := store.Insert(ctx, &CreationRecord{OriginalPrompt: prompt})
		require.NoError(rt, err)

		// Every stored record sharing all tokens ties with the new one, so ask for all of them.
		n, err := store.Count(ctx)
		require.NoError(rt, err)

		results, err := store.QuerySimilar(ctx, prompt, n)
		require.NoError(rt, err)

		var ids []string
		for _, r := range results {
			ids = append(ids, r.ID)
		}
		assert.Contains(rt, ids, id)
	})
}

func TestProperty_QuerySimilar_NoTokensNoResults(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, p := range []string{"mountain forest", "glass city skyline", "tiny cat"} {
		_, err := store.Insert(ctx, &CreationRecord{OriginalPrompt: p})
		require.NoError(t, err)
	}

	rapid.Check(t, func(rt *rapid.T) {
		words := rapid.SliceOf(rapid.StringMatching(`[A-Za-z]{0,3}`)).Draw(rt, "words")
		results, err := store.QuerySimilar(ctx, strings.Join(words, " "), 3)
		require.NoError(rt, err)
		assert.Empty(rt, results)
	})
}

func TestProperty_QuerySimilar_OrderedByOverlap(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	vocab := []string{"mountain", "forest", "river", "castle", "desert", "harbor"}
	rapid.Check(t, func(rt *rapid.T) {
		words := rapid.SliceOfNDistinct(rapid.SampledFrom(vocab), 1, len(vocab), rapid.ID[string]).Draw(rt, "record")
		_, err := store.Insert(ctx, &CreationRecord{OriginalPrompt: strings.Join(words, " ")})
		require.NoError(rt, err)

		query := rapid.SliceOfNDistinct(rapid.SampledFrom(vocab), 1, len(vocab), rapid.ID[string]).Draw(rt, "query")
		results, err := store.QuerySimilar(ctx, strings.Join(query, " "), 10)
		require.NoError(rt, err)

		prev := len(query) + 1
		for _, r := range results {
			overlap := 0
			for _, q := range query {
				if strings.Contains(" "+r.OriginalPrompt+" ", " "+q+" ") {
					overlap++
				}
			}
			assert.Greater(rt, overlap, 0)
			assert.LessOrEqual(rt, overlap, prev)
			prev = overlap
		}
	})
}
