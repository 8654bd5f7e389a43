package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

// fakeChromaClient keeps collections in a map keyed by name. Methods the
// store does not call are left to the embedded nil interface.
type fakeChromaClient struct {
	chromago.Client
	collections map[string]*fakeChromaCollection
	addErr      error
}

func newFakeChromaClient() *fakeChromaClient {
	return &fakeChromaClient{collections: map[string]*fakeChromaCollection{}}
}

func (c *fakeChromaClient) CreateCollection(_ context.Context, name string, _ ...chromago.CreateCollectionOption) (chromago.Collection, error) {
	if _, ok := c.collections[name]; ok {
		return nil, fmt.Errorf("collection %s already exists", name)
	}
	col := &fakeChromaCollection{owner: c, name: name}
	c.collections[name] = col
	return col, nil
}

func (c *fakeChromaClient) DeleteCollection(_ context.Context, name string, _ ...chromago.DeleteCollectionOption) error {
	if _, ok := c.collections[name]; !ok {
		return fmt.Errorf("collection %s does not exist", name)
	}
	delete(c.collections, name)
	return nil
}

func (c *fakeChromaClient) GetCollection(_ context.Context, name string, _ ...chromago.GetCollectionOption) (chromago.Collection, error) {
	col, ok := c.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s does not exist", name)
	}
	return col, nil
}

type fakeChromaCollection struct {
	chromago.Collection
	owner *fakeChromaClient
	name  string
	ids   []chromago.DocumentID
}

func (x *fakeChromaCollection) Add(_ context.Context, opts ...chromago.CollectionAddOption) error {
	if x.owner.addErr != nil {
		return x.owner.addErr
	}
	op := &chromago.CollectionAddOp{}
	for _, opt := range opts {
		if err := opt(op); err != nil {
			return err
		}
	}
	x.ids = append(x.ids, op.Ids...)
	return nil
}

func (x *fakeChromaCollection) Count(context.Context) (int, error) {
	return len(x.ids), nil
}

func (x *fakeChromaCollection) ModifyName(_ context.Context, newName string) error {
	delete(x.owner.collections, x.name)
	x.name = newName
	x.owner.collections[newName] = x
	return nil
}

type failingEmbedder struct{ err error }

func (e failingEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, e.err
}

func (e failingEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, e.err
}

func seedLiveCollection(t *testing.T, client *fakeChromaClient, name string, docs int) *fakeChromaCollection {
	t.Helper()
	col, err := client.CreateCollection(context.Background(), name)
	require.NoError(t, err)
	live := col.(*fakeChromaCollection)
	for i := 0; i < docs; i++ {
		live.ids = append(live.ids, chromago.DocumentID(fmt.Sprintf("old-%d", i)))
	}
	return live
}

func TestChromaIndexStore_BuildReplacesLiveCollection(t *testing.T) {
	client := newFakeChromaClient()
	seedLiveCollection(t, client, "kb", 5)
	store := NewChromaIndexStore(client, "kb", &bagOfWordsEmbedder{})

	_, err := store.Build(context.Background(), []schema.Document{
		chunk("returns are accepted within thirty days", "returns.txt"),
		chunk("shipping takes five business days", "shipping.txt"),
	})
	require.NoError(t, err)

	require.Len(t, client.collections, 1, "staging collection must be swapped in, not left behind")
	live, ok := client.collections["kb"]
	require.True(t, ok)
	assert.Len(t, live.ids, 2)
	for _, id := range live.ids {
		assert.False(t, strings.HasPrefix(string(id), "old-"))
	}

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, loaded)
}

func TestChromaIndexStore_FailedBuildKeepsLiveCollection(t *testing.T) {
	tests := []struct {
		name     string
		embedder failingEmbedder
		addErr   error
	}{
		{name: "embedding fails", embedder: failingEmbedder{err: errors.New("quota exceeded")}},
		{name: "add fails", addErr: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeChromaClient()
			seedLiveCollection(t, client, "kb", 5)
			client.addErr = tt.addErr

			var store *ChromaIndexStore
			if tt.embedder.err != nil {
				store = NewChromaIndexStore(client, "kb", tt.embedder)
			} else {
				store = NewChromaIndexStore(client, "kb", &bagOfWordsEmbedder{})
			}

			_, err := store.Build(context.Background(), []schema.Document{chunk("new policy text", "policy.txt")})
			require.Error(t, err)

			require.Len(t, client.collections, 1, "staging collection must be dropped")
			live, ok := client.collections["kb"]
			require.True(t, ok, "live collection must survive a failed rebuild")
			assert.Len(t, live.ids, 5)

			client.addErr = nil
			_, err = store.Load(context.Background())
			assert.NoError(t, err)
		})
	}
}

func TestChromaIndexStore_LoadMissingOrEmpty(t *testing.T) {
	client := newFakeChromaClient()
	store := NewChromaIndexStore(client, "kb", &bagOfWordsEmbedder{})

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrIndexNotFound)

	seedLiveCollection(t, client, "kb", 0)
	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, ErrIndexNotFound)
}
