package upload

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophstore/internal/client/client"
	"github.com/dmitrijs2005/gophstore/internal/client/services"
	"github.com/dmitrijs2005/gophstore/internal/client/tokenstore"
	"github.com/dmitrijs2005/gophstore/internal/testutil"
)

func TestQueue_AgainstBackend(t *testing.T) {
	b := testutil.NewBackend(t)
	b.SetUploadHook(func(name string, _ int64) error {
		if strings.HasPrefix(name, "reject") {
			return errors.New("virus detected")
		}
		return nil
	})

	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.SetPair(context.Background(), tokenstore.Pair{
		AccessToken:  b.IssueAccessToken("alice", time.Now().Add(time.Hour)),
		RefreshToken: b.IssueRefreshToken("alice"),
	}))
	c, err := client.New(b.URL(), store)
	require.NoError(t, err)

	q := NewQueue(services.NewStorageService(c, nil))
	defer q.Close()

	big := q.Enqueue(1, 0, BytesSource("big.bin", make([]byte, 256<<10)))
	empty := q.Enqueue(1, 0, BytesSource("empty.bin", nil))
	rejected := q.Enqueue(1, 0, BytesSource("rejected.exe", []byte("MZ")))
	small := q.Enqueue(1, 0, BytesSource("small.txt", []byte("hi")))
	waitIdle(t, q)

	assert.Equal(t, []string{"big.bin", "rejected.exe", "small.txt"}, b.UploadOrder())

	assert.Equal(t, StatusSuccess, statusOf(t, q, big))
	assert.Equal(t, StatusSuccess, statusOf(t, q, small))

	e, _ := q.Get(empty)
	assert.ErrorIs(t, e.Err, ErrEmptySource)

	e, _ = q.Get(rejected)
	assert.Equal(t, StatusError, e.Status)
	var apiErr *client.APIError
	require.ErrorAs(t, e.Err, &apiErr)
	assert.Equal(t, "virus detected", apiErr.Message)

	data, ok := b.FileData("small.txt")
	require.True(t, ok)
	assert.Equal(t, "hi", string(data))
}
