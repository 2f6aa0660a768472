package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/angelmondragon/churchhub-backend/internal/principals"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/storage/gcs"
	"github.com/google/uuid"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type stubGateway struct {
	uploaded    []byte
	name        string
	contentType string
	uploadErr   error
	deleted     string
	deleteErr   error
}

func (s *stubGateway) Upload(ctx context.Context, name, contentType string, body io.Reader) (gcs.Object, error) {
	if s.uploadErr != nil {
		return gcs.Object{}, s.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return gcs.Object{}, err
	}
	s.uploaded, s.name, s.contentType = data, name, contentType
	return gcs.Object{Name: name, Size: int64(len(data)), PublicURL: "https://cdn.example.org/bucket/" + name}, nil
}

func (s *stubGateway) Delete(ctx context.Context, name string) error {
	s.deleted = name
	return s.deleteErr
}

func (s *stubGateway) ObjectName(publicURL string) (string, bool) {
	const prefix = "https://cdn.example.org/bucket/"
	if strings.HasPrefix(publicURL, prefix) {
		return strings.TrimPrefix(publicURL, prefix), true
	}
	return "", false
}

func adminWith(perms ...enums.AdminPermission) principals.Principal {
	return principals.FromAdministrator(&models.Administrator{
		ID:          uuid.New(),
		AdminLevel:  enums.AdminLevelStandard,
		Permissions: models.PermissionsFrom(perms),
		Active:      true,
	})
}

func newService(t *testing.T, gw Gateway, max int64) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Gateway: gw, MaxUploadBytes: max})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestUploadSniffsContent(t *testing.T) {
	gw := &stubGateway{}
	svc := newService(t, gw, 1<<20)
	body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 4000)...)

	res, err := svc.Upload(context.Background(), adminWith(enums.PermissionManageContent), UploadInput{
		Kind: enums.MediaKindBlogImage,
		Body: bytes.NewReader(body),
	})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if res.ContentType != "image/png" || gw.contentType != "image/png" {
		t.Fatalf("unexpected content type %q / %q", res.ContentType, gw.contentType)
	}
	if !bytes.Equal(gw.uploaded, body) {
		t.Fatalf("gateway received %d bytes, want %d", len(gw.uploaded), len(body))
	}
	if !strings.HasPrefix(gw.name, "blogs/") || !strings.HasSuffix(gw.name, ".png") {
		t.Fatalf("unexpected object name %q", gw.name)
	}
	if res.SizeBytes != int64(len(body)) {
		t.Fatalf("unexpected size %d", res.SizeBytes)
	}
}

func TestUploadRejectsWrongType(t *testing.T) {
	svc := newService(t, &stubGateway{}, 1<<20)
	_, err := svc.Upload(context.Background(), adminWith(enums.PermissionManageSermons), UploadInput{
		Kind: enums.MediaKindSermonVideo,
		Body: bytes.NewReader(pngHeader),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadEnforcesPermissions(t *testing.T) {
	svc := newService(t, &stubGateway{}, 1<<20)
	_, err := svc.Upload(context.Background(), adminWith(enums.PermissionManageContent), UploadInput{
		Kind: enums.MediaKindSermonThumbnail,
		Body: bytes.NewReader(pngHeader),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	member := principals.FromMember(&models.Member{ID: uuid.New(), Active: true, ApprovalStatus: enums.ApprovalStatusApproved})
	if _, err := svc.Upload(context.Background(), member, UploadInput{Kind: enums.MediaKindAvatar, Body: bytes.NewReader(pngHeader)}); err != nil {
		t.Fatalf("member avatar upload failed: %v", err)
	}
}

func TestUploadEnforcesSize(t *testing.T) {
	gw := &stubGateway{}
	svc := newService(t, gw, 64)
	admin := adminWith(enums.PermissionManageContent)
	body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 100)...)

	_, err := svc.Upload(context.Background(), admin, UploadInput{Kind: enums.MediaKindEventImage, SizeBytes: int64(len(body)), Body: bytes.NewReader(body)})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge from declared size, got %v", err)
	}

	_, err = svc.Upload(context.Background(), admin, UploadInput{Kind: enums.MediaKindEventImage, Body: bytes.NewReader(body)})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge from streamed size, got %v", err)
	}
}

func TestUploadGatewayFailure(t *testing.T) {
	svc := newService(t, &stubGateway{uploadErr: errors.New("boom")}, 1<<20)
	_, err := svc.Upload(context.Background(), adminWith(enums.PermissionManageContent), UploadInput{
		Kind: enums.MediaKindBlogImage,
		Body: bytes.NewReader(pngHeader),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	gw := &stubGateway{}
	svc := newService(t, gw, 1<<20)
	ctx := context.Background()
	sermons := adminWith(enums.PermissionManageSermons)

	if err := svc.Delete(ctx, sermons, "https://cdn.example.org/bucket/sermons/videos/2026/10/x.mp4"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if gw.deleted != "sermons/videos/2026/10/x.mp4" {
		t.Fatalf("unexpected deleted object %q", gw.deleted)
	}
	if err := svc.Delete(ctx, sermons, "blogs/2026/10/x.png"); pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := svc.Delete(ctx, sermons, "private/secrets.txt"); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign prefix, got %v", err)
	}

	gw.deleteErr = gcs.ErrObjectNotFound
	if err := svc.Delete(ctx, sermons, "sermons/thumbnails/gone.png"); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
