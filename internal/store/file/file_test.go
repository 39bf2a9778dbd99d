package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"carebook/internal/store"
	"carebook/internal/store/storetest"
	dErrors "carebook/pkg/domain-errors"
)

func TestFileBackend(t *testing.T) {
	suite.Run(t, &storetest.BackendSuite{
		NewBackend: func() store.Backend {
			b, err := New(t.TempDir())
			require.NoError(t, err)
			return b
		},
	})
}

func TestFileBackend_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := New(dir)
	require.NoError(t, err)
	_, err = first.Swap(ctx, "users", 0, []byte(`[{"id":"1"}]`))
	require.NoError(t, err)

	second, err := New(dir)
	require.NoError(t, err)
	doc, err := second.Load(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Version)
	assert.JSONEq(t, `[{"id":"1"}]`, string(doc.Payload))

	raw, err := os.ReadFile(filepath.Join(dir, "users.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"records":[{"id":"1"}]}`, string(raw))
}

func TestFileBackend_CorruptFileReadsAsEmptyThroughCollection(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "payments.json"), []byte("{not json"), 0o644))

	b, err := New(dir)
	require.NoError(t, err)
	s := store.New(b)

	var raw []map[string]any
	err = s.Read(ctx, "payments", &raw)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeStorageCorrupt))

	coll := store.NewCollection[map[string]any](s, "payments")
	records, err := coll.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	// The next write replaces the corrupt file.
	require.NoError(t, coll.Update(ctx, func(r []map[string]any) ([]map[string]any, error) {
		return append(r, map[string]any{"id": "p1"}), nil
	}))
	records, err = coll.All(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFileBackend_RejectsBadNames(t *testing.T) {
	b, err := New(t.TempDir())
	require.NoError(t, err)
	_, err = b.Load(context.Background(), "../escape")
	assert.Error(t, err)
}
