package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taggedRow struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	Ignored string `db:"-"`
	NoTag   string
	private string `db:"private"`
}

func TestStructTagValues(t *testing.T) {
	cols := StructTagValues(taggedRow{})
	assert.Equal(t, []string{"id", "name"}, cols)

	// pointer input behaves the same
	cols = StructTagValues(&taggedRow{})
	assert.Equal(t, []string{"id", "name"}, cols)
}

func TestStructToMap(t *testing.T) {
	row := taggedRow{ID: "abc", Name: "test", Ignored: "x", NoTag: "y", private: "z"}

	m := StructToMap(&row)
	require.Len(t, m, 2)
	assert.Equal(t, "abc", m["id"])
	assert.Equal(t, "test", m["name"])
}

func TestNanoID(t *testing.T) {
	seen := map[string]struct{}{}
	for range 100 {
		id := NanoID()
		require.Len(t, id, NanoidSize)
		_, dup := seen[id]
		require.False(t, dup, "generated duplicate id %s", id)
		seen[id] = struct{}{}
	}

	assert.Len(t, NanoIDSize(8), 8)
	assert.Len(t, NanoIDSize(0), NanoidSize)
}
