// Package models defines the wire types exchanged with the storage backend.
//
// Every response type implements Validate so the HTTP client can reject a
// malformed body at the boundary instead of passing zero values upward.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidField = errors.New("invalid field")

func fieldError(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidField, field, reason)
}

// User is the profile returned by /api/user and /api/admin/users.
type User struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return fieldError("username", "is empty")
	}
	return nil
}

// Users is the admin listing.
type Users []User

func (us Users) Validate() error {
	for i := range us {
		if err := us[i].Validate(); err != nil {
			return fmt.Errorf("users[%d]: %w", i, err)
		}
	}
	return nil
}

// Workspace is a root container of folders and files.
type Workspace struct {
	WorkspaceID int64  `json:"workspaceId"`
	Name        string `json:"name"`
}

func (w *Workspace) Validate() error {
	if w.WorkspaceID <= 0 {
		return fieldError("workspaceId", "must be positive")
	}
	return nil
}

type Workspaces []Workspace

func (ws Workspaces) Validate() error {
	for i := range ws {
		if err := ws[i].Validate(); err != nil {
			return fmt.Errorf("workspaces[%d]: %w", i, err)
		}
	}
	return nil
}

type Folder struct {
	FolderID    int64      `json:"folderId"`
	Name        string     `json:"name"`
	WorkspaceID *int64     `json:"workspaceId,omitempty"`
	ParentID    *int64     `json:"parentId,omitempty"`
	CreatedAt   *time.Time `json:"createAt,omitempty"`
	UpdatedAt   *time.Time `json:"updateAt,omitempty"`
}

func (f *Folder) Validate() error {
	if f.FolderID <= 0 {
		return fieldError("folderId", "must be positive")
	}
	if strings.TrimSpace(f.Name) == "" {
		return fieldError("name", "is empty")
	}
	return nil
}

type File struct {
	FileID      int64     `json:"fileId"`
	Name        string    `json:"name"`
	Size        int64     `json:"size,omitempty"`
	WorkspaceID int64     `json:"workspaceId"`
	ParentID    int64     `json:"parentId"`
	CreatedAt   time.Time `json:"createAt"`
	UpdatedAt   time.Time `json:"updateAt"`
}

func (f *File) Validate() error {
	if f.FileID <= 0 {
		return fieldError("fileId", "must be positive")
	}
	if strings.TrimSpace(f.Name) == "" {
		return fieldError("name", "is empty")
	}
	return nil
}

// Children is the content of a workspace root or a folder.
type Children struct {
	Folders []Folder `json:"folders"`
	Files   []File   `json:"files"`
}

func (c *Children) Validate() error {
	for i := range c.Folders {
		if err := c.Folders[i].Validate(); err != nil {
			return fmt.Errorf("folders[%d]: %w", i, err)
		}
	}
	for i := range c.Files {
		if err := c.Files[i].Validate(); err != nil {
			return fmt.Errorf("files[%d]: %w", i, err)
		}
	}
	return nil
}

// CreateFolderRequest is the body of POST /api/storage/folder. ParentID is
// omitted for folders created at the workspace root.
type CreateFolderRequest struct {
	Name        string `json:"name"`
	WorkspaceID int64  `json:"workspaceId"`
	ParentID    *int64 `json:"parentId,omitempty"`
}

// UploadResult is the acknowledgement of POST /api/storage/upload.
type UploadResult struct {
	Message string `json:"message"`
	FileID  int64  `json:"fileId,omitempty"`
}

func (r *UploadResult) Validate() error { return nil }

type PublicKey struct {
	PublicKey string `json:"publicKey"`
}

func (k *PublicKey) Validate() error {
	if strings.TrimSpace(k.PublicKey) == "" {
		return fieldError("publicKey", "is empty")
	}
	return nil
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
