package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	fileapp "github.com/fest-portal-api/internal/application/file"
	"github.com/fest-portal-api/internal/domain"
	"github.com/fest-portal-api/internal/pkg/validate"
	"github.com/fest-portal-api/internal/transport/http/middleware"
)

// decodeJSON decodes and validates the body into dst. On failure it writes
// a 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageEnvelope{Message: "Invalid request body.", Code: "bad_request"})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageEnvelope{Message: err.Error(), Code: "validation_failed"})
		return false
	}
	return true
}

func actorFrom(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized, no token")
	}
	return actor, ok
}

// parseUpload parses a multipart form bounded by MaxUploadSize and returns
// the named file, or nil when the field is absent. The caller must call
// the returned close func.
func parseUpload(w http.ResponseWriter, r *http.Request, field string) (*fileapp.UploadInput, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, fileapp.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(fileapp.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusBadRequest, MessageEnvelope{Message: "File is too large.", Code: "bad_request"})
			return nil, nil, false
		}
		writeJSON(w, http.StatusBadRequest, MessageEnvelope{Message: "Invalid multipart form.", Code: "bad_request"})
		return nil, nil, false
	}
	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, true
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, MessageEnvelope{Message: "Invalid file field.", Code: "bad_request"})
		return nil, nil, false
	}
	in := &fileapp.UploadInput{
		Reader:      f,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	return in, func() { _ = f.Close() }, true
}

// formValue reads a multipart text field; ok is false when it was not sent.
func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vs, ok := r.MultipartForm.Value[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}
