package dump

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamiri/firedump/internal/database"
)

type fakeStore struct {
	project string
	roots   []database.Collection
	err     error
}

func (f *fakeStore) ProjectID() string { return f.project }

func (f *fakeStore) RootCollections(ctx context.Context) ([]database.Collection, error) {
	return f.roots, f.err
}

type fakeCollection struct {
	id   string
	docs []database.Document
	err  error
}

func (c *fakeCollection) ID() string { return c.id }

func (c *fakeCollection) Documents(ctx context.Context, limit int) ([]database.Document, error) {
	if c.err != nil {
		return nil, c.err
	}
	if limit > 0 && len(c.docs) > limit {
		return c.docs[:limit], nil
	}
	return c.docs, nil
}

type fakeDocument struct {
	id     string
	data   map[string]interface{}
	subs   []database.Collection
	subErr error
}

func (d *fakeDocument) ID() string { return d.id }

func (d *fakeDocument) Data() map[string]interface{} { return d.data }

func (d *fakeDocument) Collections(ctx context.Context) ([]database.Collection, error) {
	return d.subs, d.subErr
}

func runWalker(t *testing.T, store Store, opts Options) string {
	t.Helper()
	var out bytes.Buffer
	ser := NewSerializer(log.New(&bytes.Buffer{}, "", 0))
	w := NewWalker(store, &out, ser, opts)
	require.NoError(t, w.Run(context.Background()))
	return out.String()
}

func manyDocs(n int) []database.Document {
	docs := make([]database.Document, n)
	for i := range docs {
		docs[i] = &fakeDocument{
			id:   string(rune('a' + i)),
			data: map[string]interface{}{"i": int64(i)},
		}
	}
	return docs
}

func TestDefaultLimitCapsDocumentsPerCollection(t *testing.T) {
	store := &fakeStore{
		project: "demo",
		roots:   []database.Collection{&fakeCollection{id: "users", docs: manyDocs(8)}},
	}

	out := runWalker(t, store, Options{MaxDepth: 10})

	assert.Equal(t, 5, strings.Count(out, "--- Document:"))
	assert.Contains(t, out, "Fetching up to 5 documents from collection: users")
}

func TestNoLimitFetchesAllDocuments(t *testing.T) {
	store := &fakeStore{
		project: "demo",
		roots:   []database.Collection{&fakeCollection{id: "users", docs: manyDocs(8)}},
	}

	out := runWalker(t, store, Options{MaxDepth: 10, NoLimit: true})

	assert.Equal(t, 8, strings.Count(out, "--- Document:"))
	assert.Contains(t, out, "Fetching ALL documents from collection: users")
}

func TestMaxDepthStopsRecursionHard(t *testing.T) {
	leaf := &fakeCollection{
		id:   "deep",
		docs: []database.Document{&fakeDocument{id: "hidden", data: map[string]interface{}{"x": int64(1)}}},
	}
	root := &fakeCollection{
		id: "top",
		docs: []database.Document{
			&fakeDocument{id: "doc1", data: map[string]interface{}{}, subs: []database.Collection{leaf}},
		},
	}
	store := &fakeStore{project: "demo", roots: []database.Collection{root}}

	out := runWalker(t, store, Options{MaxDepth: 0})

	assert.Contains(t, out, "--- Document: doc1 ---")
	assert.Contains(t, out, "!!! Max recursion depth (0) reached for collection: deep. Stopping recursion here. !!!")
	assert.NotContains(t, out, "--- Document: hidden ---")
	assert.NotContains(t, out, "Processing Collection: deep")
}

func TestEmptyCollectionNotice(t *testing.T) {
	store := &fakeStore{
		project: "demo",
		roots:   []database.Collection{&fakeCollection{id: "users"}},
	}

	out := runWalker(t, store, Options{MaxDepth: 10})

	assert.Contains(t, out, "(Collection 'users' appears empty or has no documents directly within it)")
	assert.NotContains(t, out, "--- Document:")
}

func TestCollectionErrorSkipsSubtreeNotSiblings(t *testing.T) {
	broken := &fakeCollection{id: "broken", err: errors.New("permission denied")}
	healthy := &fakeCollection{id: "healthy", docs: manyDocs(1)}
	store := &fakeStore{project: "demo", roots: []database.Collection{broken, healthy}}

	out := runWalker(t, store, Options{MaxDepth: 10})

	assert.Contains(t, out, "!!! Warning: Error processing collection 'broken'. Skipping collection. !!!")
	assert.Contains(t, out, "Error details: permission denied")
	assert.Contains(t, out, "Processing Collection: healthy")
	assert.Contains(t, out, "--- Document: a ---")
}

func TestSubcollectionListingErrorNamesParentAndContinuesSiblings(t *testing.T) {
	failing := &fakeCollection{
		id: "parent",
		docs: []database.Document{
			&fakeDocument{id: "doc1", data: map[string]interface{}{}, subErr: errors.New("boom")},
		},
	}
	sibling := &fakeCollection{id: "sibling", docs: manyDocs(1)}
	store := &fakeStore{project: "demo", roots: []database.Collection{failing, sibling}}

	out := runWalker(t, store, Options{MaxDepth: 10})

	assert.Contains(t, out, "!!! Warning: Error processing collection 'parent'. Skipping collection. !!!")
	assert.Contains(t, out, "Processing Collection: sibling")
}

func TestNoRootCollectionsPrintsNoDataNotice(t *testing.T) {
	store := &fakeStore{project: "demo"}

	out := runWalker(t, store, Options{MaxDepth: 10})

	assert.Contains(t, out, "No top-level collections found in this database.")
	assert.Contains(t, out, "--- Firestore Data Dump Complete (No Data) ---")
	assert.NotContains(t, out, "Processing Collection")
}

func TestRootListingErrorIsFatal(t *testing.T) {
	store := &fakeStore{project: "demo", err: errors.New("unauthenticated")}

	var out bytes.Buffer
	ser := NewSerializer(log.New(&bytes.Buffer{}, "", 0))
	w := NewWalker(store, &out, ser, Options{MaxDepth: 10})

	err := w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list top-level collections")
}

func TestClosingBannerNamesProject(t *testing.T) {
	store := &fakeStore{
		project: "demo-project",
		roots:   []database.Collection{&fakeCollection{id: "users", docs: manyDocs(1)}},
	}

	out := runWalker(t, store, Options{MaxDepth: 10})

	assert.Contains(t, out, "--- End of Firestore Data Dump (demo-project) ---")
}

func TestSubcollectionsVisitedAfterParentDocument(t *testing.T) {
	sub := &fakeCollection{
		id:   "orders",
		docs: []database.Document{&fakeDocument{id: "o1", data: map[string]interface{}{"total": 9.5}}},
	}
	root := &fakeCollection{
		id: "users",
		docs: []database.Document{
			&fakeDocument{id: "alice", data: map[string]interface{}{}, subs: []database.Collection{sub}},
		},
	}
	store := &fakeStore{project: "demo", roots: []database.Collection{root}}

	out := runWalker(t, store, Options{MaxDepth: 10})

	assert.Contains(t, out, "--- Checking subcollections for document alice ---")
	docPos := strings.Index(out, "--- Document: alice ---")
	subPos := strings.Index(out, "Processing Collection: orders")
	require.GreaterOrEqual(t, docPos, 0)
	require.Greater(t, subPos, docPos)
	assert.Contains(t, out, "--- Document: o1 ---")
}
