package httpapi

import (
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/transfer"
)

type recordWriter func(io.Writer, *transfer.EncryptedChunk) error

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, id := userIDFromContext(ctx), r.PathValue("id")

	d, err := h.files.OpenDownload(ctx, userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	contentType, write := negotiateRecords(r.Header.Get("Accept"))
	hdr := w.Header()
	hdr.Set("Content-Type", contentType)
	hdr.Set("X-Content-Type-Options", "nosniff")
	hdr.Set(common.HeaderFileName, url.QueryEscape(d.File.FileName))
	hdr.Set(common.HeaderFileType, d.File.FileType)
	hdr.Set(common.HeaderLastModified, strconv.FormatInt(d.File.LastModified, 10))
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	err = d.Stream(ctx, func(c *transfer.EncryptedChunk) error {
		if err := write(w, c); err != nil {
			return err
		}
		return rc.Flush()
	})
	if err != nil {
		h.logger.Error(ctx, "download aborted", "user_id", userID, "file_id", id, "error", err)
		// Headers are gone; abort so the client sees a truncated stream.
		panic(http.ErrAbortHandler)
	}
}

// negotiateRecords picks the record framing for a download. Framed
// records are used when the client accepts them at least as much as
// plain JSON records.
func negotiateRecords(accept string) (string, recordWriter) {
	framed := acceptQuality(accept, common.FramedStreamContentType)
	plain := max(
		acceptQuality(accept, common.RecordStreamContentType),
		acceptQuality(accept, "application/json"),
	)
	if framed > 0 && framed >= plain {
		return common.FramedStreamContentType, transfer.WriteFramedRecord
	}
	return common.RecordStreamContentType, transfer.WriteJSONRecord
}

// acceptQuality returns the q value an Accept header gives mediaType,
// honoring type/* and */* ranges. The most specific matching range wins.
func acceptQuality(accept, mediaType string) float64 {
	major, _, _ := strings.Cut(mediaType, "/")
	best, bestSpecificity := 0.0, -1

	for _, part := range strings.Split(accept, ",") {
		mt, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		specificity := -1
		switch {
		case strings.EqualFold(mt, mediaType):
			specificity = 2
		case strings.EqualFold(mt, major+"/*"):
			specificity = 1
		case mt == "*/*":
			specificity = 0
		}
		if specificity < bestSpecificity || specificity < 0 {
			continue
		}

		q := 1.0
		if v, ok := params["q"]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
				q = f
			}
		}
		if specificity > bestSpecificity {
			best, bestSpecificity = q, specificity
		} else if q > best {
			best = q
		}
	}
	return best
}
