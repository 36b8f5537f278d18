package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophstore/internal/client/client"
	"github.com/dmitrijs2005/gophstore/internal/client/models"
	"github.com/dmitrijs2005/gophstore/internal/filex"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/netx"
)

var ErrEmptyName = errors.New("name is empty")

// UploadSource is a file to be sent. Open is called once per attempt.
type UploadSource interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

type StorageService interface {
	Workspaces(ctx context.Context) (models.Workspaces, error)
	WorkspaceChildren(ctx context.Context, workspaceID int64) (*models.Children, error)
	FolderChildren(ctx context.Context, folderID int64) (*models.Children, error)
	CreateFolder(ctx context.Context, name string, workspaceID, parentID int64) (*models.Folder, error)
	Upload(ctx context.Context, workspaceID, folderID int64, src UploadSource, progress netx.ProgressFunc) (*models.UploadResult, error)
	Download(ctx context.Context, fileID int64, dir string) (string, error)
}

type storageService struct {
	api    API
	logger logging.Logger
}

func NewStorageService(api API, logger logging.Logger) StorageService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &storageService{api: api, logger: logger}
}

func (s *storageService) Workspaces(ctx context.Context) (models.Workspaces, error) {
	var ws models.Workspaces
	if err := s.api.Do(ctx, &client.Request{Method: http.MethodGet, Path: "/api/storage/workspaces"}, &ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func (s *storageService) WorkspaceChildren(ctx context.Context, workspaceID int64) (*models.Children, error) {
	return s.children(ctx, fmt.Sprintf("/api/storage/workspace/%d/children", workspaceID))
}

func (s *storageService) FolderChildren(ctx context.Context, folderID int64) (*models.Children, error) {
	return s.children(ctx, fmt.Sprintf("/api/storage/folder/%d/children", folderID))
}

func (s *storageService) children(ctx context.Context, path string) (*models.Children, error) {
	var c models.Children
	if err := s.api.Do(ctx, &client.Request{Method: http.MethodGet, Path: path}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateFolder creates name in the workspace root when parentID is 0.
func (s *storageService) CreateFolder(ctx context.Context, name string, workspaceID, parentID int64) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	body := models.CreateFolderRequest{Name: name, WorkspaceID: workspaceID}
	if parentID != 0 {
		body.ParentID = &parentID
	}
	req, err := client.NewJSONRequest(http.MethodPost, "/api/storage/folder", body)
	if err != nil {
		return nil, err
	}

	var f models.Folder
	if err := s.api.Do(ctx, req, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Upload streams src as multipart/form-data with the fields workspaceId,
// folderId and file. progress sees the file bytes handed to the transport;
// it restarts from zero if the request is replayed after a refresh.
func (s *storageService) Upload(ctx context.Context, workspaceID, folderID int64, src UploadSource, progress netx.ProgressFunc) (*models.UploadResult, error) {
	if strings.TrimSpace(src.Name()) == "" {
		return nil, ErrEmptyName
	}

	boundary := multipart.NewWriter(io.Discard).Boundary()

	body := func() (io.Reader, error) {
		f, err := src.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", src.Name(), err)
		}

		pr, pw := io.Pipe()
		go func() {
			defer f.Close()
			pw.CloseWithError(writeMultipart(pw, boundary, workspaceID, folderID, src.Name(),
				netx.NewProgressReader(f, src.Size(), progress)))
		}()
		return pr, nil
	}

	req := &client.Request{
		Method:      http.MethodPost,
		Path:        "/api/storage/upload",
		Body:        body,
		ContentType: "multipart/form-data; boundary=" + boundary,
	}

	var res models.UploadResult
	if err := s.api.Do(ctx, req, &res); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "file uploaded", "name", src.Name(), "size", src.Size(), "file_id", res.FileID)
	return &res, nil
}

func writeMultipart(w io.Writer, boundary string, workspaceID, folderID int64, name string, r io.Reader) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(boundary); err != nil {
		return err
	}
	if err := mw.WriteField("workspaceId", strconv.FormatInt(workspaceID, 10)); err != nil {
		return err
	}
	if err := mw.WriteField("folderId", strconv.FormatInt(folderID, 10)); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	return mw.Close()
}

// Download saves the file into dir and returns the written path. The name
// comes from the Content-Disposition header, falling back to file-<id>;
// an existing file is never overwritten.
func (s *storageService) Download(ctx context.Context, fileID int64, dir string) (string, error) {
	resp, err := s.api.Stream(ctx, &client.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/storage/download/file/%d", fileID),
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	name := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = fmt.Sprintf("file-%d", fileID)
	}

	dir, err = filex.EnsureDir(dir)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: read download body: %v", client.ErrTransport, err)
	}

	target, err := filex.UniquePath(dir, name)
	if err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("rename %s: %w", filepath.Base(target), err)
	}

	s.logger.Info(ctx, "file downloaded", "file_id", fileID, "path", target, "bytes", n)
	return target, nil
}

func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return filex.SafeName(params["filename"])
}
