package notes

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newRepo() *MemoryRepository {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewMemoryRepository(WithClock(clock.now))
}

func contents(notes []Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Content
	}
	return out
}

func TestMemoryRepository_AddAssignsIDs(t *testing.T) {
	ctx := context.Background()
	r := newRepo()

	a, err := r.Add(ctx, Note{Content: "a"})
	require.NoError(t, err)
	b, err := r.Add(ctx, r.CreateNew())
	require.NoError(t, err)

	require.Equal(t, 1, a.ID)
	require.Equal(t, 2, b.ID)
	require.False(t, a.Modified.IsZero())
	require.Equal(t, 2, r.Count())
}

func TestMemoryRepository_CreateNewIsUnsaved(t *testing.T) {
	r := newRepo()
	n := r.CreateNew()
	require.True(t, n.IsNew())
	require.Equal(t, NewNoteID, n.ID)
	require.Zero(t, r.Count())
}

func TestMemoryRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	r := newRepo()
	added, err := r.Add(ctx, Note{Content: "hello"})
	require.NoError(t, err)

	got, err := r.GetByID(ctx, added.ID)
	require.NoError(t, err)
	require.Equal(t, added, got)

	_, err = r.GetByID(ctx, 99)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, 99, notFound.ID)
}

func TestMemoryRepository_UpdateStampsModified(t *testing.T) {
	ctx := context.Background()
	r := newRepo()
	added, err := r.Add(ctx, Note{Content: "draft"})
	require.NoError(t, err)

	added.Content = "final"
	updated, err := r.Update(ctx, added)
	require.NoError(t, err)
	require.True(t, updated.Modified.After(added.Modified))

	got, err := r.GetByID(ctx, added.ID)
	require.NoError(t, err)
	require.Equal(t, "final", got.Content)
}

func TestMemoryRepository_UpdateMissing(t *testing.T) {
	_, err := newRepo().Update(context.Background(), Note{ID: 5})
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestMemoryRepository_DeleteByID(t *testing.T) {
	ctx := context.Background()
	r := newRepo()
	added, err := r.Add(ctx, Note{Content: "x"})
	require.NoError(t, err)

	ok, err := r.DeleteByID(ctx, added.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.DeleteByID(ctx, added.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryRepository_ListOrders(t *testing.T) {
	ctx := context.Background()
	r := newRepo()
	for _, c := range []string{"banana", "apple", "cherry"} {
		_, err := r.Add(ctx, Note{Content: c})
		require.NoError(t, err)
	}

	byModified, err := r.List(ctx, Query{OrderBy: OrderBy{Prop: PropModified}})
	require.NoError(t, err)
	require.Equal(t, []string{"banana", "apple", "cherry"}, contents(byModified))

	byModifiedDesc, err := r.List(ctx, Query{OrderBy: OrderBy{Prop: PropModified, Desc: true}})
	require.NoError(t, err)
	require.Equal(t, []string{"cherry", "apple", "banana"}, contents(byModifiedDesc))

	byContent, err := r.List(ctx, Query{OrderBy: OrderBy{Prop: PropContent}})
	require.NoError(t, err)
	require.Equal(t, []string{"apple", "banana", "cherry"}, contents(byContent))

	byContentDesc, err := r.List(ctx, Query{OrderBy: OrderBy{Prop: PropContent, Desc: true}})
	require.NoError(t, err)
	require.Equal(t, []string{"cherry", "banana", "apple"}, contents(byContentDesc))
}

func TestMemoryRepository_SeedKeepsIDs(t *testing.T) {
	ctx := context.Background()
	r := newRepo()
	require.NoError(t, r.Seed(ctx, []Note{{ID: 10, Content: "ten"}, {ID: 3, Content: "three"}}))

	got, err := r.GetByID(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, "ten", got.Content)

	next, err := r.Add(ctx, Note{Content: "next"})
	require.NoError(t, err)
	require.Equal(t, 11, next.ID)

	err = r.Seed(ctx, []Note{{ID: 3, Content: "dup"}})
	require.Error(t, err)
}

func TestMemoryRepository_Dispose(t *testing.T) {
	ctx := context.Background()
	r := newRepo()
	_, err := r.Add(ctx, Note{Content: "x"})
	require.NoError(t, err)

	require.NoError(t, r.Dispose(ctx))
	require.Zero(t, r.Count())
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`notes:
  - id: 1
    content: Buy milk
    modified: 2024-01-02T15:04:05Z
  - id: 2
    content: Call mum
`), 0o600))

	notes, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, "Buy milk", notes[0].Content)
	require.True(t, notes[0].Modified.Equal(time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)))
	require.True(t, notes[1].Modified.IsZero())
}

func TestLoadSeed_Missing(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLess_TiesBreakByID(t *testing.T) {
	stamp := time.Now()
	a := Note{ID: 1, Modified: stamp}
	b := Note{ID: 2, Modified: stamp}
	require.True(t, Less(a, b, OrderBy{Prop: PropModified}))
	require.True(t, Less(a, b, OrderBy{Prop: PropModified, Desc: true}))
}
