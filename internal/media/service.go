// Package media uploads sermon videos and content images to the blob store.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/angelmondragon/churchhub-backend/internal/principals"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/angelmondragon/churchhub-backend/pkg/storage/gcs"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffBytes is how much of the upload mimetype inspects.
const sniffBytes = 3072

var ErrTooLarge = errors.New("upload exceeds size limit")

// Gateway is the blob store. *gcs.Client satisfies it.
type Gateway interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (gcs.Object, error)
	Delete(ctx context.Context, name string) error
	ObjectName(publicURL string) (string, bool)
}

type ServiceParams struct {
	Gateway        Gateway
	MaxUploadBytes int64
	Logger         *logger.Logger
}

type Service struct {
	gateway  Gateway
	maxBytes int64
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("media gateway required")
	}
	if params.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("max upload bytes must be positive")
	}
	return &Service{
		gateway:  params.Gateway,
		maxBytes: params.MaxUploadBytes,
		logg:     params.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// UploadInput is one file from a multipart request.
type UploadInput struct {
	Kind      enums.MediaKind
	SizeBytes int64
	Body      io.Reader
}

type UploadResult struct {
	Kind        enums.MediaKind `json:"kind"`
	ObjectName  string          `json:"object_name"`
	URL         string          `json:"url"`
	ContentType string          `json:"content_type"`
	SizeBytes   int64           `json:"size_bytes"`
}

func (s *Service) Upload(ctx context.Context, p principals.Principal, in UploadInput) (UploadResult, error) {
	if !in.Kind.IsValid() {
		return UploadResult{}, pkgerrors.Validation("invalid upload", pkgerrors.FieldError{Field: "kind", Message: "unknown media kind"})
	}
	if err := authorize(p, in.Kind); err != nil {
		return UploadResult{}, err
	}
	if in.Body == nil {
		return UploadResult{}, pkgerrors.Validation("invalid upload", pkgerrors.FieldError{Field: "file", Message: "file is required"})
	}
	if in.SizeBytes > s.maxBytes {
		return UploadResult{}, tooLarge(s.maxBytes)
	}

	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return UploadResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	head = head[:n]
	if n == 0 {
		return UploadResult{}, pkgerrors.Validation("invalid upload", pkgerrors.FieldError{Field: "file", Message: "file is empty"})
	}

	detected := mimetype.Detect(head)
	contentType := strings.ToLower(strings.SplitN(detected.String(), ";", 2)[0])
	if pol := policies[in.Kind]; !pol.accepts(detected) {
		return UploadResult{}, pkgerrors.Validation("invalid upload", pkgerrors.FieldError{
			Field:   "file",
			Message: pol.rejection(in.Kind, contentType),
		})
	}

	name := s.objectName(in.Kind, detected.Extension())
	body := &limitedReader{r: io.MultiReader(bytes.NewReader(head), in.Body), remaining: s.maxBytes}
	obj, err := s.gateway.Upload(ctx, name, contentType, body)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return UploadResult{}, tooLarge(s.maxBytes)
		}
		return UploadResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload media")
	}

	size := obj.Size
	if size == 0 {
		size = body.read
	}
	result := UploadResult{
		Kind:        in.Kind,
		ObjectName:  obj.Name,
		URL:         obj.PublicURL,
		ContentType: contentType,
		SizeBytes:   size,
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"event":        "media.uploaded",
			"object":       obj.Name,
			"kind":         string(in.Kind),
			"size_bytes":   size,
			"principal_id": p.ID().String(),
		}), "media uploaded")
	}
	return result, nil
}

// Delete accepts an object name or its public URL. Only objects under a known media
// prefix can be removed.
func (s *Service) Delete(ctx context.Context, p principals.Principal, ref string) error {
	name := strings.TrimPrefix(strings.TrimSpace(ref), "/")
	if resolved, ok := s.gateway.ObjectName(ref); ok {
		name = resolved
	}
	kind, ok := kindForObject(name)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
	}
	if err := authorize(p, kind); err != nil {
		return err
	}
	if err := s.gateway.Delete(ctx, name); err != nil {
		if errors.Is(err, gcs.ErrObjectNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete media")
	}
	return nil
}

func (s *Service) objectName(kind enums.MediaKind, ext string) string {
	now := s.now()
	return fmt.Sprintf("%s/%04d/%02d/%s%s", policies[kind].prefix, now.Year(), int(now.Month()), uuid.NewString(), ext)
}

func kindForObject(name string) (enums.MediaKind, bool) {
	var (
		best    enums.MediaKind
		bestLen int
	)
	for kind, pol := range policies {
		if strings.HasPrefix(name, pol.prefix+"/") && len(pol.prefix) > bestLen {
			best, bestLen = kind, len(pol.prefix)
		}
	}
	return best, bestLen > 0
}

func authorize(p principals.Principal, kind enums.MediaKind) error {
	perm, needed := PermissionFor(kind)
	if !needed {
		if p.ID() == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "principal required")
		}
		return nil
	}
	if !p.HasPermission(perm) {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("%s permission required", perm))
	}
	return nil
}

func tooLarge(limit int64) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrTooLarge, "upload too large").
		WithDetails([]pkgerrors.FieldError{{Field: "file", Message: fmt.Sprintf("must be at most %d bytes", limit)}})
}

// limitedReader fails with ErrTooLarge once more than remaining bytes are read.
type limitedReader struct {
	r         io.Reader
	remaining int64
	read      int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.read += int64(n)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
