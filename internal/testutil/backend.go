// Package testutil provides an in-process fake of the storage backend for
// tests. It issues real HS256 access tokens, keeps users, workspaces, folders
// and files in memory, and exposes knobs to force the refresh and upload
// paths into the states the client must survive.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Error codes the fake returns in structured error bodies.
const (
	CodeInvalidCredentials = 1001
	CodeUserExists         = 1002
	CodeInvalidToken       = 1003
	CodeForbidden          = 1004
	CodeNotFound           = 1005
	CodeBadRequest         = 1006
	CodeUploadRejected     = 1007
)

var secret = []byte("fake-backend-secret")

type user struct {
	ID       int64
	Username string
	Email    string
	Password string
	Role     string
	Key      string
}

type folder struct {
	ID          int64
	Name        string
	WorkspaceID int64
	ParentID    int64
}

type file struct {
	ID          int64
	Name        string
	WorkspaceID int64
	ParentID    int64
	Data        []byte
	CreatedAt   time.Time
}

// Backend is the fake server. Exported fields may be set before requests
// are made; counters are safe to read at any time.
type Backend struct {
	Server *httptest.Server

	// FailRefresh rejects every refresh with 401.
	FailRefresh atomic.Bool

	RefreshCalls atomic.Int64
	Unauthorized atomic.Int64

	mu            sync.Mutex
	accessTTL     time.Duration
	rotateRefresh bool
	refreshGate   chan struct{}
	uploadHook    func(name string, size int64) error
	users         map[string]*user
	access        map[string]string // access token -> username
	refresh       map[string]string // refresh token -> username
	workspaces    map[int64]string
	folders       map[int64]*folder
	files         map[int64]*file
	uploadOrder   []string
	nextID        int64
	requestCount  map[string]int
}

// NewBackend starts the fake server and closes it with the test.
func NewBackend(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		accessTTL:    time.Hour,
		users:        map[string]*user{},
		access:       map[string]string{},
		refresh:      map[string]string{},
		workspaces:   map[int64]string{1: "Personal"},
		folders:      map[int64]*folder{},
		files:        map[int64]*file{},
		nextID:       100,
		requestCount: map[string]int{},
	}
	b.addUser("admin", "admin@example.com", "admin-pass", "ADMIN")
	b.addUser("alice", "alice@example.com", "secret", "USER")

	b.Server = httptest.NewServer(b.router())
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the base URL of the fake.
func (b *Backend) URL() string { return b.Server.URL }

func (b *Backend) router() http.Handler {
	r := mux.NewRouter()
	r.Use(b.countRequests)

	r.HandleFunc("/api/auth/login", b.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/register", b.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/refresh", b.handleRefresh).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(b.requireAuth)
	api.HandleFunc("/user", b.handleMe).Methods(http.MethodGet)
	api.HandleFunc("/admin/users", b.handleUsers).Methods(http.MethodGet)
	api.HandleFunc("/user/public-key", b.handlePublicKey).Methods(http.MethodGet)
	api.HandleFunc("/user/register-key", b.handleRegisterKey).Methods(http.MethodPost)
	api.HandleFunc("/storage/workspaces", b.handleWorkspaces).Methods(http.MethodGet)
	api.HandleFunc("/storage/workspace/{id:[0-9]+}/children", b.handleWorkspaceChildren).Methods(http.MethodGet)
	api.HandleFunc("/storage/folder/{id:[0-9]+}/children", b.handleFolderChildren).Methods(http.MethodGet)
	api.HandleFunc("/storage/folder", b.handleCreateFolder).Methods(http.MethodPost)
	api.HandleFunc("/storage/upload", b.handleUpload).Methods(http.MethodPost)
	api.HandleFunc("/storage/download/file/{id:[0-9]+}", b.handleDownload).Methods(http.MethodGet)
	return r
}

// ---- test helpers ----

// HoldRefresh makes every refresh wait until gate is closed.
func (b *Backend) HoldRefresh(gate chan struct{}) {
	b.mu.Lock()
	b.refreshGate = gate
	b.mu.Unlock()
}

// SetRotateRefresh makes /api/auth/refresh return a new refresh token too.
func (b *Backend) SetRotateRefresh(on bool) {
	b.mu.Lock()
	b.rotateRefresh = on
	b.mu.Unlock()
}

// SetUploadHook runs fn for each upload; a non-nil error rejects the upload
// with 422.
func (b *Backend) SetUploadHook(fn func(name string, size int64) error) {
	b.mu.Lock()
	b.uploadHook = fn
	b.mu.Unlock()
}

func (b *Backend) addUser(username, email, password, role string) *user {
	b.nextID++
	u := &user{ID: b.nextID, Username: username, Email: email, Password: password, Role: role}
	b.users[username] = u
	return u
}

// IssueAccessToken signs an access token for username expiring at exp. The
// token is accepted by the fake only if it has been issued here.
func (b *Backend) IssueAccessToken(username string, exp time.Time) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueAccessLocked(username, exp)
}

func (b *Backend) issueAccessLocked(username string, exp time.Time) string {
	role := ""
	if u, ok := b.users[username]; ok {
		role = u.Role
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      username,
		"username": username,
		"role":     role,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
		"jti":      uuid.NewString(),
	}).SignedString(secret)
	if err != nil {
		panic(err)
	}
	b.access[tok] = username
	return tok
}

// IssueRefreshToken registers an opaque refresh token for username.
func (b *Backend) IssueRefreshToken(username string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	tok := uuid.NewString()
	b.refresh[tok] = username
	return tok
}

// RevokeAccessTokens makes every issued access token fail with 401, as if
// they had all expired server-side.
func (b *Backend) RevokeAccessTokens() {
	b.mu.Lock()
	b.access = map[string]string{}
	b.mu.Unlock()
}

// AddFolder creates a folder directly and returns its id.
func (b *Backend) AddFolder(name string, workspaceID, parentID int64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.folders[b.nextID] = &folder{ID: b.nextID, Name: name, WorkspaceID: workspaceID, ParentID: parentID}
	return b.nextID
}

// AddFile stores a file directly and returns its id.
func (b *Backend) AddFile(name string, workspaceID, parentID int64, data []byte) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.files[b.nextID] = &file{ID: b.nextID, Name: name, WorkspaceID: workspaceID, ParentID: parentID, Data: data, CreatedAt: time.Now().UTC()}
	return b.nextID
}

// UploadOrder lists uploaded file names in arrival order.
func (b *Backend) UploadOrder() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.uploadOrder...)
}

// FileData returns the stored bytes of the first file named name.
func (b *Backend) FileData(name string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, f := range b.files {
		if f.Name == name {
			return f.Data, true
		}
	}
	return nil, false
}

// PublicKeyOf returns the key registered by username.
func (b *Backend) PublicKeyOf(username string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u, ok := b.users[username]; ok {
		return u.Key
	}
	return ""
}

// Requests returns how many requests hit "METHOD /path".
func (b *Backend) Requests(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requestCount[method+" "+path]
}

// ---- plumbing ----

type ctxKey struct{}

func (b *Backend) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requestCount[r.Method+" "+r.URL.Path]++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			b.Unauthorized.Add(1)
			writeError(w, http.StatusUnauthorized, CodeInvalidToken, "missing bearer token")
			return
		}

		b.mu.Lock()
		username, known := b.access[raw]
		b.mu.Unlock()

		_, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if !known || err != nil {
			b.Unauthorized.Add(1)
			writeError(w, http.StatusUnauthorized, CodeInvalidToken, "token expired")
			return
		}

		r.Header.Set("X-Fake-User", username)
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) currentUser(r *http.Request) *user {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.users[r.Header.Get("X-Fake-User")]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status, code int, msg string) {
	writeJSON(w, status, map[string]any{"statusCode": status, "errorCode": code, "message": msg})
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

// ---- auth ----

func (b *Backend) issuePair(username string) map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	access := b.issueAccessLocked(username, time.Now().Add(b.accessTTL))
	refresh := uuid.NewString()
	b.refresh[refresh] = username
	return map[string]string{"accessToken": access, "refreshToken": refresh}
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid body")
		return
	}

	b.mu.Lock()
	u, ok := b.users[req.Username]
	b.mu.Unlock()
	if !ok || u.Password != req.Password {
		writeError(w, http.StatusUnauthorized, CodeInvalidCredentials, "invalid username or password")
		return
	}
	writeJSON(w, http.StatusOK, b.issuePair(u.Username))
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "username and password are required")
		return
	}

	b.mu.Lock()
	if _, exists := b.users[req.Username]; exists {
		b.mu.Unlock()
		writeError(w, http.StatusConflict, CodeUserExists, "user already exists")
		return
	}
	b.addUser(req.Username, req.Email, req.Password, "USER")
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, b.issuePair(req.Username))
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.RefreshCalls.Add(1)

	b.mu.Lock()
	gate := b.refreshGate
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	if r.Header.Get("Authorization") != "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "refresh must not carry a bearer token")
		return
	}

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid body")
		return
	}

	b.mu.Lock()
	username, ok := b.refresh[req.RefreshToken]
	b.mu.Unlock()
	if b.FailRefresh.Load() || !ok {
		writeError(w, http.StatusUnauthorized, CodeInvalidToken, "refresh token expired")
		return
	}

	b.mu.Lock()
	resp := map[string]string{"accessToken": b.issueAccessLocked(username, time.Now().Add(b.accessTTL))}
	if b.rotateRefresh {
		delete(b.refresh, req.RefreshToken)
		next := uuid.NewString()
		b.refresh[next] = username
		resp["refreshToken"] = next
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// ---- user ----

func userJSON(u *user) map[string]any {
	return map[string]any{"id": u.ID, "username": u.Username, "email": u.Email, "role": u.Role}
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	u := b.currentUser(r)
	if u == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, userJSON(u))
}

func (b *Backend) handleUsers(w http.ResponseWriter, r *http.Request) {
	u := b.currentUser(r)
	if u == nil || u.Role != "ADMIN" {
		writeError(w, http.StatusForbidden, CodeForbidden, "admin only")
		return
	}

	b.mu.Lock()
	out := make([]map[string]any, 0, len(b.users))
	for _, name := range sortedKeys(b.users) {
		out = append(out, userJSON(b.users[name]))
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handlePublicKey(w http.ResponseWriter, r *http.Request) {
	u := b.currentUser(r)
	if u == nil || u.Key == "" {
		writeError(w, http.StatusNotFound, CodeNotFound, "no key registered")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": u.Key})
}

func (b *Backend) handleRegisterKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PublicKey string `json:"publicKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.PublicKey) == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "publicKey is required")
		return
	}
	u := b.currentUser(r)
	b.mu.Lock()
	u.Key = req.PublicKey
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// ---- storage ----

func (b *Backend) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := make([]map[string]any, 0, len(b.workspaces))
	for id := int64(1); id <= int64(len(b.workspaces)); id++ {
		out = append(out, map[string]any{"workspaceId": id, "name": b.workspaces[id]})
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) children(workspaceID, parentID int64) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()

	folders := []map[string]any{}
	for _, id := range sortedIDs(b.folders) {
		f := b.folders[id]
		if f.WorkspaceID == workspaceID && f.ParentID == parentID {
			entry := map[string]any{"folderId": f.ID, "name": f.Name, "workspaceId": f.WorkspaceID}
			if f.ParentID != 0 {
				entry["parentId"] = f.ParentID
			}
			folders = append(folders, entry)
		}
	}
	files := []map[string]any{}
	for _, id := range sortedIDs(b.files) {
		f := b.files[id]
		if f.WorkspaceID == workspaceID && f.ParentID == parentID {
			files = append(files, map[string]any{
				"fileId": f.ID, "name": f.Name, "size": len(f.Data),
				"workspaceId": f.WorkspaceID, "parentId": f.ParentID,
				"createAt": f.CreatedAt, "updateAt": f.CreatedAt,
			})
		}
	}
	return map[string]any{"folders": folders, "files": files}
}

func (b *Backend) handleWorkspaceChildren(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	b.mu.Lock()
	_, ok := b.workspaces[id]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "workspace not found")
		return
	}
	writeJSON(w, http.StatusOK, b.children(id, 0))
}

func (b *Backend) handleFolderChildren(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	b.mu.Lock()
	f, ok := b.folders[id]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "folder not found")
		return
	}
	writeJSON(w, http.StatusOK, b.children(f.WorkspaceID, f.ID))
}

func (b *Backend) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		WorkspaceID int64  `json:"workspaceId"`
		ParentID    *int64 `json:"parentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "name is required")
		return
	}
	var parent int64
	if req.ParentID != nil {
		parent = *req.ParentID
	}
	id := b.AddFolder(req.Name, req.WorkspaceID, parent)

	resp := map[string]any{"folderId": id, "name": req.Name, "workspaceId": req.WorkspaceID}
	if parent != 0 {
		resp["parentId"] = parent
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (b *Backend) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid multipart body")
		return
	}
	workspaceID, _ := strconv.ParseInt(r.FormValue("workspaceId"), 10, 64)
	folderID, _ := strconv.ParseInt(r.FormValue("folderId"), 10, 64)

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "file is required")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "read file")
		return
	}

	b.mu.Lock()
	b.uploadOrder = append(b.uploadOrder, header.Filename)
	b.mu.Unlock()

	b.mu.Lock()
	hook := b.uploadHook
	b.mu.Unlock()
	if hook != nil {
		if err := hook(header.Filename, int64(len(data))); err != nil {
			writeError(w, http.StatusUnprocessableEntity, CodeUploadRejected, err.Error())
			return
		}
	}

	id := b.AddFile(header.Filename, workspaceID, folderID, data)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "uploaded", "fileId": id})
}

func (b *Backend) handleDownload(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	f, ok := b.files[pathID(r)]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	_, _ = w.Write(f.Data)
}
