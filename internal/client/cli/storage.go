package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophstore/internal/client/models"
	"github.com/dmitrijs2005/gophstore/internal/client/state"
	"github.com/dmitrijs2005/gophstore/internal/client/upload"
)

var (
	errUnknownWorkspace = errors.New("no such workspace")
	errUnknownFolder    = errors.New("no such folder")
	errUnknownUpload    = errors.New("no such pending upload")
)

func (a *App) Workspaces(ctx context.Context) error {
	if err := a.require(ctx, "workspaces"); err != nil {
		return err
	}
	ws, err := a.storage.Workspaces(ctx)
	if err != nil {
		return err
	}

	current := a.nav.Location().WorkspaceID
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME")
	for _, w := range ws {
		mark := ""
		if w.WorkspaceID == current {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", mark, w.WorkspaceID, w.Name)
	}
	return tw.Flush()
}

// Use selects a workspace by id or by name and moves to its root.
func (a *App) Use(ctx context.Context, workspace string) error {
	if err := a.require(ctx, "workspace"); err != nil {
		return err
	}
	ws, err := a.storage.Workspaces(ctx)
	if err != nil {
		return err
	}

	id, _ := strconv.ParseInt(workspace, 10, 64)
	for _, w := range ws {
		if w.WorkspaceID == id || strings.EqualFold(w.Name, workspace) {
			a.nav.SetWorkspace(w.WorkspaceID, w.Name)
			a.printf("Using workspace %s\n", w.Name)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", errUnknownWorkspace, workspace)
}

// children lists the current location: the workspace root or a folder.
func (a *App) children(ctx context.Context) (*models.Children, error) {
	loc := a.nav.Location()
	if loc.WorkspaceID == 0 {
		return nil, state.ErrNoWorkspace
	}
	if loc.FolderID == 0 {
		return a.storage.WorkspaceChildren(ctx, loc.WorkspaceID)
	}
	return a.storage.FolderChildren(ctx, loc.FolderID)
}

// List prints the folders and files of the current location.
func (a *App) List(ctx context.Context) error {
	if err := a.require(ctx, "folder"); err != nil {
		return err
	}
	c, err := a.children(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tID\tNAME\tSIZE")
	for _, f := range c.Folders {
		fmt.Fprintf(tw, "dir\t%d\t%s\t\n", f.FolderID, f.Name)
	}
	for _, f := range c.Files {
		fmt.Fprintf(tw, "file\t%d\t%s\t%d\n", f.FileID, f.Name, f.Size)
	}
	return tw.Flush()
}

// Cd enters a sub-folder of the current location by id or name; ".." goes
// back one level.
func (a *App) Cd(ctx context.Context, folder string) error {
	if folder == ".." {
		return a.Back(ctx)
	}
	if err := a.require(ctx, "folder"); err != nil {
		return err
	}
	c, err := a.children(ctx)
	if err != nil {
		return err
	}

	id, _ := strconv.ParseInt(folder, 10, 64)
	for _, f := range c.Folders {
		if f.FolderID == id || f.Name == folder {
			return a.nav.Enter(f.FolderID, f.Name)
		}
	}
	return fmt.Errorf("%w: %s", errUnknownFolder, folder)
}

func (a *App) Back(ctx context.Context) error {
	if err := a.require(ctx, "folder"); err != nil {
		return err
	}
	return a.nav.Back()
}

// Mkdir creates a folder in the current location.
func (a *App) Mkdir(ctx context.Context, name string) error {
	if err := a.require(ctx, "folder"); err != nil {
		return err
	}
	loc := a.nav.Location()
	if loc.WorkspaceID == 0 {
		return state.ErrNoWorkspace
	}
	f, err := a.storage.CreateFolder(ctx, name, loc.WorkspaceID, loc.FolderID)
	if err != nil {
		return err
	}
	a.printf("Created folder %s (%d)\n", f.Name, f.FolderID)
	return nil
}

// Get downloads a file into the configured download directory.
func (a *App) Get(ctx context.Context, fileID string) error {
	if err := a.require(ctx, "file"); err != nil {
		return err
	}
	id, err := parseID(fileID)
	if err != nil {
		return err
	}
	path, err := a.storage.Download(ctx, id, a.config.DownloadDir)
	if err != nil {
		return err
	}
	a.printf("Saved to %s\n", path)
	return nil
}

// Put queues local files for upload into the current location. A path that
// cannot be opened is reported and skipped.
func (a *App) Put(ctx context.Context, paths []string) error {
	if err := a.require(ctx, "upload"); err != nil {
		return err
	}
	loc := a.nav.Location()
	if loc.WorkspaceID == 0 {
		return state.ErrNoWorkspace
	}

	var errs []error
	for _, p := range paths {
		src, err := upload.FileSource(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		id := a.uploads.Enqueue(loc.WorkspaceID, loc.FolderID, src)
		a.printf("Queued #%d %s (%d bytes)\n", id, src.Name(), src.Size())
	}
	return errors.Join(errs...)
}

func (a *App) Uploads(context.Context) error {
	return writeUploads(a.out, a.uploads.List())
}

func (a *App) Cancel(_ context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	if !a.uploads.Cancel(n) {
		return fmt.Errorf("%w: %d", errUnknownUpload, n)
	}
	a.printf("Canceled #%d\n", n)
	return nil
}

// Clear drops finished uploads from the list.
func (a *App) Clear(context.Context) error {
	a.printf("Removed %d finished upload(s)\n", a.uploads.Clear())
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
