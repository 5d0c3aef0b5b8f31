package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"Playshare/core/catalog"
	"Playshare/logger"
	"Playshare/storage"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// MediaHandler streams an uploaded cover or audio file.
func (h *APIHandler) MediaHandler(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if !strings.HasPrefix(key, storage.CoverPrefix) && !strings.HasPrefix(key, storage.SongPrefix) {
		writeError(w, r, catalog.ErrNotFound)
		return
	}

	object, info, err := h.blobs.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, catalog.ErrNotFound)
			return
		}
		writeError(w, r, err)
		return
	}
	defer object.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=31536000")

	if _, err := io.Copy(w, object); err != nil {
		logger.Error("Error serving media", logger.String("key", key), logger.ErrorField(err))
	}
}
