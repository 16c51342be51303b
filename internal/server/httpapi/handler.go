// Package httpapi exposes the GophDrive server over HTTP: account
// endpoints, chunk upload, file listing, deletion and streamed download.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/services"
	"github.com/dmitrijs2005/gophdrive/internal/transfer"
)

// Users is the account side of the API.
type Users interface {
	Register(ctx context.Context, username, passwordHash string) (*models.User, error)
	Login(ctx context.Context, username, passwordHash string) (*services.LoginResult, error)
	Authenticate(token string) (string, error)
	SetSessionKey(ctx context.Context, userID, wrapped string) error
}

// Files is the storage side of the API.
type Files interface {
	UploadChunk(ctx context.Context, userID string, c *transfer.EncryptedChunk) (*transfer.EncryptedChunk, error)
	List(ctx context.Context, userID string) ([]*models.File, error)
	Delete(ctx context.Context, userID, id string) error
	OpenDownload(ctx context.Context, userID, id string) (*services.Download, error)
}

type Handler struct {
	users  Users
	files  Files
	logger logging.Logger
}

func NewHandler(users Users, files Files, logger logging.Logger) *Handler {
	return &Handler{users: users, files: files, logger: logger.With("module", "http_api")}
}

// Routes returns the HTTP routing table.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /login", h.login)

	mux.Handle("POST /user/session-key", h.authenticated(h.setSessionKey))
	mux.Handle("POST /uploads/upload", h.authenticated(h.upload))
	mux.Handle("GET /myFiles", h.authenticated(h.listFiles))
	mux.Handle("DELETE /myFiles/delete/{id}", h.authenticated(h.deleteFile))
	mux.Handle("GET /myFiles/download/{id}", h.authenticated(h.download))

	return h.logRequests(mux)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
