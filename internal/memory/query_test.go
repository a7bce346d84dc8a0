package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryBuilder_In(t *testing.T) {
	var b queryBuilder
	b.Write("SELECT * FROM tags WHERE tag IN ").
		In([]string{"forest", "mountain"}).
		Write(" LIMIT ?", 3)

	assert.Equal(t, "SELECT * FROM tags WHERE tag IN (?, ?) LIMIT ?", b.String())
	assert.Equal(t, []any{"forest", "mountain", 3}, b.Args())
}

func TestQueryBuilder_EmptyIn(t *testing.T) {
	var b queryBuilder
	b.Write("tag IN ").In(nil)

	assert.Equal(t, "tag IN (NULL)", b.String())
	assert.Empty(t, b.Args())
}

func TestQueryBuilder_ValuesAreNeverInlined(t *testing.T) {
	var b queryBuilder
	b.Write("tag IN ").In([]string{"'; DROP TABLE creations; --"})

	assert.Equal(t, "tag IN (?)", b.String())
	assert.Len(t, b.Args(), 1)
}
