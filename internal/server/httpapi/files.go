package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/transfer"
)

// maxChunkBody bounds an upload request. A full chunk of incompressible
// data is about 88 KiB once base64 encoded.
const maxChunkBody = 1 << 20

type fileResponse struct {
	UUID      string    `json:"uuid"`
	FileName  string    `json:"fileName"`
	Size      int64     `json:"size"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.files.List(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, fileResponse{
			UUID:      f.ID,
			FileName:  f.FileName,
			Size:      f.Size,
			Type:      f.FileType,
			CreatedAt: f.CreatedAt,
			UpdatedAt: f.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.files.Delete(r.Context(), userIDFromContext(r.Context()), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChunkBody)

	c, err := parseUpload(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ack, err := h.files.UploadChunk(r.Context(), userIDFromContext(r.Context()), c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

// parseUpload accepts a chunk either as a JSON record or as the multipart
// form sent by browsers and the CLI.
func parseUpload(r *http.Request) (*transfer.EncryptedChunk, error) {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: bad content type", common.ErrorValidation)
	}

	switch mt {
	case "application/json":
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, bodyError(err)
		}
		return transfer.ParseChunk(data)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxChunkBody); err != nil {
			return nil, bodyError(err)
		}
		record, err := formRecord(r.MultipartForm.Value)
		if err != nil {
			return nil, err
		}
		return transfer.ParseChunk(record)
	}
	return nil, fmt.Errorf("%w: unsupported content type %q", common.ErrorValidation, mt)
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrorValidation, err)
}

var (
	formIntFields    = []string{"originalSize", "compressedSize", "encryptedSize", "chunkIndex", "totalChunks", "lastModified"}
	formStringFields = []string{"encrypted", "fileId", "fileName", "fileType"}
)

// formRecord converts upload form fields into a JSON chunk record. Absent
// fields stay absent so that record validation reports them.
func formRecord(values map[string][]string) ([]byte, error) {
	get := func(k string) (string, bool) {
		v, ok := values[k]
		if !ok || len(v) == 0 {
			return "", false
		}
		return v[0], true
	}

	rec := make(map[string]any)
	for _, k := range formStringFields {
		if v, ok := get(k); ok {
			rec[k] = v
		}
	}
	for _, k := range formIntFields {
		v, ok := get(k)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s is not an integer", common.ErrorValidation, k)
		}
		rec[k] = n
	}
	if v, ok := get("iv"); ok {
		iv, err := parseFormIV(v)
		if err != nil {
			return nil, err
		}
		rec["iv"] = iv
	}
	return json.Marshal(rec)
}

// parseFormIV reads the IV as a JSON array or as comma separated numbers,
// which is how a byte array is stringified by a browser form.
func parseFormIV(v string) ([]int, error) {
	v = strings.TrimSpace(v)
	var iv []int
	if strings.HasPrefix(v, "[") {
		if err := json.Unmarshal([]byte(v), &iv); err != nil {
			return nil, fmt.Errorf("%w: iv: %v", common.ErrorValidation, err)
		}
		return iv, nil
	}
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: iv is not a byte list", common.ErrorValidation)
		}
		iv = append(iv, n)
	}
	return iv, nil
}
