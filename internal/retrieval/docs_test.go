package retrieval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieve_RanksByOverlap(t *testing.T) {
	store := NewDocumentStore([]string{
		"Parking rates: first two hours free, then 5 per hour.",
		"Electric vehicle charging stations on level 1.",
		"Reservations need admin approval.",
	})

	hits := store.Retrieve("what are the parking rates", 2)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Index, "rates passage ranks first")
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestRetrieve_Deterministic(t *testing.T) {
	store := NewDocumentStore(DefaultDocuments())

	first := store.Retrieve("parking reservation approval", 3)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, store.Retrieve("parking reservation approval", 3))
	}
}

func TestRetrieve_TieBreaksOnIndex(t *testing.T) {
	store := NewDocumentStore([]string{"red apples", "red berries"})

	hits := store.Retrieve("red", 2)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Index)
	assert.Equal(t, 1, hits[1].Index)
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	store := NewDocumentStore(DefaultDocuments())
	assert.Nil(t, store.Retrieve("", 3))
	assert.Nil(t, store.Retrieve("!!! ???", 3))
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.txt")
	content := "first passage here\n\nsecond passage here\n\n\n\nthird passage\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())
}

func TestFromFile_Missing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
