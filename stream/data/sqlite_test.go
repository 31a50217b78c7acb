package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_Upsert(t *testing.T) {
	json1 := []byte(`{"id":"tag:twitter.com:1","published":"2012-02-22T20:26:41","content":"hello"}`)
	json2 := []byte(`{"id":"tag:twitter.com:1","published":"2012-02-22T20:26:41","content":"goodbye"}`)

	s := sqliteStore{name: "test", connection: "file::memory:?cache=shared"}
	require.NoError(t, s.Open())
	defer s.Close()

	doc, err := NewRecord(json1)
	require.NoError(t, err)
	assert.NoError(t, s.Upsert(context.Background(), doc))

	documents, err := s.SelectAll(context.Background())
	assert.NoError(t, err)
	require.Equal(t, 1, len(documents))
	assert.Equal(t, doc.ID(), documents[0].ID())

	// same id replaces the row instead of adding one
	doc2, err := NewRecord(json2)
	require.NoError(t, err)
	assert.NoError(t, s.Upsert(context.Background(), doc2))

	documents, err = s.SelectAll(context.Background())
	assert.NoError(t, err)
	require.Equal(t, 1, len(documents))
}

func TestSQLite_SelectAllOrdered(t *testing.T) {
	s := sqliteStore{name: "test", connection: "file::memory:"}
	require.NoError(t, s.Open())
	defer s.Close()

	older, err := NewRecord([]byte(`{"id":"tag:twitter.com:1","published":"2012-01-01T00:00:00"}`))
	require.NoError(t, err)
	newer, err := NewRecord([]byte(`{"id":"tag:twitter.com:2","published":"2012-06-01T00:00:00"}`))
	require.NoError(t, err)

	// inserted newest first, selected oldest first
	require.NoError(t, s.Upsert(context.Background(), newer))
	require.NoError(t, s.Upsert(context.Background(), older))

	documents, err := s.SelectAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, len(documents))
	assert.Equal(t, "tag:twitter.com:1", documents[0].ID())
	assert.Equal(t, "tag:twitter.com:2", documents[1].ID())
}

func TestSQLite_NotOpened(t *testing.T) {
	s := sqliteStore{name: "test", connection: "file::memory:"}
	_, err := s.SelectAll(context.Background())
	assert.Error(t, err)
}
