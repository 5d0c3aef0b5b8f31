package server

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"Playshare/core/catalog"

	"github.com/pkg/errors"
)

// errTooLarge is answered with 413.
var errTooLarge = errors.New("request body too large")

// parseForm reads a multipart or urlencoded body, capped at the upload limit.
func (h *APIHandler) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes())
	err := r.ParseMultipartForm(32 << 20)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errTooLarge
	}
	return &catalog.ValidationError{Fields: map[string]string{"__all__": "Malformed form data."}}
}

// formFile returns the uploaded file for field, or nil when none was sent.
// The caller closes the returned file.
func formFile(r *http.Request, field string) (*catalog.Upload, multipart.File, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read %s", field)
	}
	return &catalog.Upload{Filename: header.Filename, Reader: file}, file, nil
}

// formIDs parses a repeated id field such as "tags".
func formIDs(r *http.Request, field string) ([]int64, error) {
	var ids []int64
	for _, raw := range r.Form[field] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &catalog.ValidationError{Fields: map[string]string{field: "Enter a whole number."}}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *APIHandler) writeFormError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
		return
	}
	writeError(w, r, err)
}
