// Package state holds the client-side view state shared by CLI commands:
// where the user is in the workspace tree and who is logged in.
package state

import (
	"errors"
	"strings"
	"sync"
)

var (
	ErrNoWorkspace = errors.New("no workspace selected")
	ErrAtRoot      = errors.New("already at workspace root")
)

type crumb struct {
	id   int64
	name string
}

// Location is a snapshot of the navigator. FolderID 0 is the workspace root.
type Location struct {
	WorkspaceID      int64
	WorkspaceName    string
	FolderID         int64
	PreviousFolderID int64
	Path             []string
}

// String renders the location as "/workspace/folder/...".
func (l Location) String() string {
	if l.WorkspaceID == 0 {
		return "/"
	}
	return "/" + strings.Join(append([]string{l.WorkspaceName}, l.Path...), "/")
}

// Navigator tracks the current workspace, current folder and the trail of
// folders walked to get there.
type Navigator struct {
	mu            sync.RWMutex
	workspaceID   int64
	workspaceName string
	trail         []crumb
}

func NewNavigator() *Navigator {
	return &Navigator{}
}

// SetWorkspace switches workspace and returns to its root.
func (n *Navigator) SetWorkspace(id int64, name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.workspaceID, n.workspaceName = id, name
	n.trail = nil
}

// Enter descends into a folder of the current location.
func (n *Navigator) Enter(folderID int64, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.workspaceID == 0 {
		return ErrNoWorkspace
	}
	n.trail = append(n.trail, crumb{id: folderID, name: name})
	return nil
}

// Back returns to the previous folder.
func (n *Navigator) Back() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.workspaceID == 0 {
		return ErrNoWorkspace
	}
	if len(n.trail) == 0 {
		return ErrAtRoot
	}
	n.trail = n.trail[:len(n.trail)-1]
	return nil
}

func (n *Navigator) Location() Location {
	n.mu.RLock()
	defer n.mu.RUnlock()

	loc := Location{WorkspaceID: n.workspaceID, WorkspaceName: n.workspaceName}
	if k := len(n.trail); k > 0 {
		loc.FolderID = n.trail[k-1].id
		if k > 1 {
			loc.PreviousFolderID = n.trail[k-2].id
		}
	}
	for _, c := range n.trail {
		loc.Path = append(loc.Path, c.name)
	}
	return loc
}

// Reset forgets everything, e.g. on logout.
func (n *Navigator) Reset() {
	n.SetWorkspace(0, "")
}
