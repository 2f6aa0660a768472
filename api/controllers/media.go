package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/churchhub-backend/api/responses"
	"github.com/angelmondragon/churchhub-backend/internal/media"
	"github.com/angelmondragon/churchhub-backend/internal/principals"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead leaves room for boundaries and small form fields on top of the file itself.
const multipartOverhead = 1 << 20

// UploadBodyLimit is the largest request body MediaUpload accepts for files of up to maxBytes.
func UploadBodyLimit(maxBytes int64) int64 {
	return maxBytes + multipartOverhead
}

type mediaService interface {
	Upload(ctx context.Context, p principals.Principal, in media.UploadInput) (media.UploadResult, error)
	Delete(ctx context.Context, p principals.Principal, ref string) error
}

// MediaUpload streams a single multipart "file" part to the blob store. The media
// kind comes from the ?kind= query or a "kind" field sent before the file.
func MediaUpload(svc mediaService, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, UploadBodyLimit(maxBytes))

		reader, err := r.MultipartReader()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Validation("invalid upload",
				pkgerrors.FieldError{Field: "file", Message: "multipart/form-data body required"}))
			return
		}

		in := media.UploadInput{}
		rawKind := strings.TrimSpace(r.URL.Query().Get("kind"))
		for {
			part, err := reader.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				responses.WriteError(r.Context(), logg, w, uploadReadError(err, maxBytes))
				return
			}

			switch part.FormName() {
			case "kind":
				value, err := readField(part)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, uploadReadError(err, maxBytes))
					return
				}
				if rawKind == "" {
					rawKind = value
				}
			case "size_bytes":
				value, err := readField(part)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, uploadReadError(err, maxBytes))
					return
				}
				if n, convErr := strconv.ParseInt(value, 10, 64); convErr == nil && n > 0 {
					in.SizeBytes = n
				}
			case "file":
				kind, err := enums.ParseMediaKind(rawKind)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Validation("invalid upload",
						pkgerrors.FieldError{Field: "kind", Message: "kind must precede the file and name a known media kind"}))
					return
				}
				in.Kind = kind
				in.Body = part

				result, err := svc.Upload(r.Context(), p, in)
				if err != nil {
					var maxErr *http.MaxBytesError
					if errors.As(err, &maxErr) {
						err = uploadReadError(err, maxBytes)
					}
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				responses.WriteSuccessStatus(w, http.StatusCreated, "media uploaded", result)
				return
			}
			_ = part.Close()
		}

		responses.WriteError(r.Context(), logg, w, pkgerrors.Validation("invalid upload",
			pkgerrors.FieldError{Field: "file", Message: "file is required"}))
	}
}

// MediaDelete removes an object by name, taken from the wildcard path or a ?url= query.
func MediaDelete(svc mediaService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ref := strings.TrimSpace(chi.URLParam(r, "*"))
		if ref == "" {
			ref = strings.TrimSpace(r.URL.Query().Get("url"))
		}
		if ref == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Validation("invalid request",
				pkgerrors.FieldError{Field: "object", Message: "object name or url required"}))
			return
		}
		if err := svc.Delete(r.Context(), p, ref); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "media deleted", nil)
	}
}

func readField(part io.Reader) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(part, 256))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func uploadReadError(err error, maxBytes int64) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return pkgerrors.Validation("invalid upload", pkgerrors.FieldError{
			Field:   "file",
			Message: "file exceeds the " + strconv.FormatInt(maxBytes>>20, 10) + "MB limit",
		})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
}
