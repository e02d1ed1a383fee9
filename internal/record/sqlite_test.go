package record

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/searchsync/searchsync/internal/errors"
)

func memStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore("", map[string]string{"post": "id", "comment": "id"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_ApplyAndGet(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()

	err := s.Apply(ctx, ChangeSet{
		{Op: OpCreate, Entity: "post", Record: Record{"id": 1, "title": "hello"}},
	})
	require.NoError(t, err)

	rec, ok, err := s.Get(ctx, "post", "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", rec["title"])
}

func TestSQLiteStore_Get_AbsentIsNotError(t *testing.T) {
	s := memStore(t)

	rec, ok, err := s.Get(context.Background(), "post", "404")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestSQLiteStore_Apply_UpdateReplaces(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()

	require.NoError(t, s.Apply(ctx, ChangeSet{
		{Op: OpCreate, Entity: "post", Record: Record{"id": 1, "title": "old"}},
	}))
	require.NoError(t, s.Apply(ctx, ChangeSet{
		{Op: OpUpdate, Entity: "post", Record: Record{"id": 1, "title": "new"}},
	}))

	rec, ok, err := s.Get(ctx, "post", "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", rec["title"])

	count, err := s.Count(ctx, "post")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLiteStore_Apply_Delete(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()

	require.NoError(t, s.Apply(ctx, ChangeSet{
		{Op: OpCreate, Entity: "post", Record: Record{"id": 1, "title": "doomed"}},
	}))
	require.NoError(t, s.Apply(ctx, ChangeSet{
		{Op: OpDelete, Entity: "post", Record: Record{"id": 1}},
	}))

	_, ok, err := s.Get(ctx, "post", "1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_Apply_UnknownEntityFails(t *testing.T) {
	s := memStore(t)

	err := s.Apply(context.Background(), ChangeSet{
		{Op: OpCreate, Entity: "ghost", Record: Record{"id": 1}},
	})
	require.Error(t, err)
	assert.Equal(t, serrors.ErrCodeNotRegistered, serrors.GetCode(err))
}

func TestSQLiteStore_Apply_MissingPrimaryKeyFails(t *testing.T) {
	s := memStore(t)

	err := s.Apply(context.Background(), ChangeSet{
		{Op: OpCreate, Entity: "post", Record: Record{"title": "no id"}},
	})
	require.Error(t, err)
	assert.Equal(t, serrors.ErrCodeInvalidRecord, serrors.GetCode(err))

	// Validation happens before the transaction, nothing was written.
	count, err := s.Count(context.Background(), "post")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSQLiteStore_CommitHook_ObservesCommittedState(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()

	var seen ChangeSet
	s.CommitHook(func(hookCtx context.Context, changes ChangeSet) error {
		seen = changes
		// The change is already durable when the hook runs.
		rec, ok, err := s.Get(hookCtx, "post", "1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "hooked", rec["title"])
		return nil
	})

	err := s.Apply(ctx, ChangeSet{
		{Op: OpCreate, Entity: "post", Record: Record{"id": 1, "title": "hooked"}},
	})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, OpCreate, seen[0].Op)
}

func TestSQLiteStore_CommitHook_ErrorDoesNotRollBack(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()

	hookErr := fmt.Errorf("index write failed")
	s.CommitHook(func(context.Context, ChangeSet) error { return hookErr })

	err := s.Apply(ctx, ChangeSet{
		{Op: OpCreate, Entity: "post", Record: Record{"id": 1, "title": "survives"}},
	})
	require.ErrorIs(t, err, hookErr)

	// The record store commit itself already succeeded.
	rec, ok, getErr := s.Get(ctx, "post", "1")
	require.NoError(t, getErr)
	require.True(t, ok)
	assert.Equal(t, "survives", rec["title"])
}

func TestSQLiteStore_All_ReturnsEveryRecord(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()

	cs := ChangeSet{}
	for i := 1; i <= 3; i++ {
		cs = append(cs, Change{
			Op: OpCreate, Entity: "post",
			Record: Record{"id": i, "title": fmt.Sprintf("post %d", i)},
		})
	}
	cs = append(cs, Change{Op: OpCreate, Entity: "comment", Record: Record{"id": 9, "body": "other"}})
	require.NoError(t, s.Apply(ctx, cs))

	posts, err := s.All(ctx, "post")
	require.NoError(t, err)
	assert.Len(t, posts, 3)

	comments, err := s.All(ctx, "comment")
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")

	s, err := NewSQLiteStore(path, map[string]string{"post": "id"})
	require.NoError(t, err)
	require.NoError(t, s.Apply(context.Background(), ChangeSet{
		{Op: OpCreate, Entity: "post", Record: Record{"id": 1, "title": "durable"}},
	}))
	require.NoError(t, s.Close())

	s2, err := NewSQLiteStore(path, map[string]string{"post": "id"})
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()

	rec, ok, err := s2.Get(context.Background(), "post", "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "durable", rec["title"])
}

func TestRecord_TextField(t *testing.T) {
	rec := Record{"title": "hello", "views": float64(42), "draft": true}

	v, ok := rec.TextField("title")
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	v, ok = rec.TextField("views")
	require.True(t, ok)
	assert.Equal(t, "42", v)

	_, ok = rec.TextField("missing")
	assert.False(t, ok)
}

func TestRecord_Key_StableAcrossJSONRoundTrip(t *testing.T) {
	// json.Unmarshal decodes numbers as float64; the stringified key must
	// match the one derived from the original int.
	original := Record{"id": 7}
	decoded := Record{"id": float64(7)}

	k1, ok := original.Key("id")
	require.True(t, ok)
	k2, ok := decoded.Key("id")
	require.True(t, ok)
	assert.Equal(t, k1, k2)
}
