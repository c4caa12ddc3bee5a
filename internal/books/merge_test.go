package books

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeUniqueByID(t *testing.T) {
	previous := []Book{{ID: "a"}, {ID: "b"}}
	incoming := []Book{{ID: "b"}, {ID: "c"}, {ID: "a"}, {ID: "d"}}

	merged, appended := MergeUniqueByID(previous, incoming)

	assert.Equal(t, 2, appended)
	require.Len(t, merged, 4)
	assert.Equal(t, "a", merged[0].ID)
	assert.Equal(t, "b", merged[1].ID)
	assert.Equal(t, "c", merged[2].ID)
	assert.Equal(t, "d", merged[3].ID)
}

func TestMergeUniqueByIDAllDuplicates(t *testing.T) {
	previous := []Book{{ID: "a"}, {ID: "b"}}

	merged, appended := MergeUniqueByID(previous, []Book{{ID: "a"}, {ID: "b"}})

	assert.Zero(t, appended)
	assert.Len(t, merged, 2)
}

func TestMergeUniqueByIDDoesNotMutateInput(t *testing.T) {
	previous := []Book{{ID: "a", Title: "A"}}

	merged, _ := MergeUniqueByID(previous, []Book{{ID: "b"}})
	merged[0].Title = "mutated"

	assert.Equal(t, "A", previous[0].Title)
}

func TestMergeUniqueByIDEmptyPrevious(t *testing.T) {
	merged, appended := MergeUniqueByID(nil, []Book{{ID: "a"}, {ID: "a"}})

	assert.Equal(t, 1, appended)
	assert.Len(t, merged, 1)
}
