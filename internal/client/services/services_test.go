package services

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophstore/internal/client/client"
	"github.com/dmitrijs2005/gophstore/internal/client/tokenstore"
	"github.com/dmitrijs2005/gophstore/internal/testutil"
)

type bytesSource struct {
	name string
	data []byte
}

func (b bytesSource) Name() string { return b.name }
func (b bytesSource) Size() int64  { return int64(len(b.data)) }
func (b bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// setup wires a real client to the fake backend. With login set, alice is
// already signed in.
func setup(t *testing.T, login bool) (*testutil.Backend, *client.Client, *tokenstore.MemoryStore) {
	t.Helper()
	b := testutil.NewBackend(t)
	store := tokenstore.NewMemoryStore()
	if login {
		require.NoError(t, store.SetPair(context.Background(), tokenstore.Pair{
			AccessToken:  b.IssueAccessToken("alice", time.Now().Add(time.Hour)),
			RefreshToken: b.IssueRefreshToken("alice"),
		}))
	}
	c, err := client.New(b.URL(), store)
	require.NoError(t, err)
	return b, c, store
}
