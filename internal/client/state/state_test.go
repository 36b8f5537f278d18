package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophstore/internal/client/models"
)

func TestNavigator_Walk(t *testing.T) {
	n := NewNavigator()

	assert.ErrorIs(t, n.Enter(5, "docs"), ErrNoWorkspace)
	assert.ErrorIs(t, n.Back(), ErrNoWorkspace)
	assert.Equal(t, "/", n.Location().String())

	n.SetWorkspace(1, "Personal")
	assert.ErrorIs(t, n.Back(), ErrAtRoot)

	require.NoError(t, n.Enter(5, "docs"))
	require.NoError(t, n.Enter(9, "2024"))

	loc := n.Location()
	assert.EqualValues(t, 1, loc.WorkspaceID)
	assert.EqualValues(t, 9, loc.FolderID)
	assert.EqualValues(t, 5, loc.PreviousFolderID)
	assert.Equal(t, "/Personal/docs/2024", loc.String())

	require.NoError(t, n.Back())
	loc = n.Location()
	assert.EqualValues(t, 5, loc.FolderID)
	assert.Zero(t, loc.PreviousFolderID)

	require.NoError(t, n.Back())
	assert.Zero(t, n.Location().FolderID)
	assert.Equal(t, "/Personal", n.Location().String())
}

func TestNavigator_SetWorkspaceResetsTrail(t *testing.T) {
	n := NewNavigator()
	n.SetWorkspace(1, "Personal")
	require.NoError(t, n.Enter(5, "docs"))

	n.SetWorkspace(2, "Team")
	loc := n.Location()
	assert.EqualValues(t, 2, loc.WorkspaceID)
	assert.Zero(t, loc.FolderID)
	assert.Empty(t, loc.Path)

	n.Reset()
	assert.Zero(t, n.Location().WorkspaceID)
}

func TestUserStore(t *testing.T) {
	s := NewUserStore()
	_, ok := s.User()
	assert.False(t, ok)
	assert.Empty(t, s.Username())

	s.Set(models.User{Username: "alice", Email: "a@example.com", Role: "ADMIN"})
	u, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "a@example.com", u.Email)
	assert.Equal(t, "alice", s.Username())
	assert.Equal(t, "ADMIN", s.Role())

	s.Reset()
	_, ok = s.User()
	assert.False(t, ok)
}
