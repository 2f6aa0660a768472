package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/churchhub-backend/internal/media"
	"github.com/angelmondragon/churchhub-backend/internal/principals"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
)

type stubMediaService struct {
	uploaded  media.UploadInput
	body      []byte
	deleted   string
	uploadErr error
}

func (s *stubMediaService) Upload(_ context.Context, _ principals.Principal, in media.UploadInput) (media.UploadResult, error) {
	if s.uploadErr != nil {
		return media.UploadResult{}, s.uploadErr
	}
	s.uploaded = in
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return media.UploadResult{}, err
	}
	s.body = data
	return media.UploadResult{Kind: in.Kind, ObjectName: "blogs/2026/01/x.png", URL: "https://cdn/x.png", SizeBytes: int64(len(data))}, nil
}

func (s *stubMediaService) Delete(_ context.Context, _ principals.Principal, ref string) error {
	s.deleted = ref
	return nil
}

func multipartBody(t *testing.T, fields [][2]string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		part, err := writer.CreateFormFile("file", "upload.png")
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write(file); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf, writer.FormDataContentType()
}

func TestMediaUploadStreamsFilePart(t *testing.T) {
	svc := &stubMediaService{}
	body, contentType := multipartBody(t, [][2]string{{"kind", "blog_image"}}, []byte("image-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", contentType)
	req = asPrincipal(req, superAdministrator())
	resp := httptest.NewRecorder()

	MediaUpload(svc, 1<<20, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.uploaded.Kind != enums.MediaKindBlogImage {
		t.Fatalf("unexpected kind %q", svc.uploaded.Kind)
	}
	if string(svc.body) != "image-bytes" {
		t.Fatalf("unexpected body %q", svc.body)
	}
}

func TestMediaUploadKindFromQuery(t *testing.T) {
	svc := &stubMediaService{}
	body, contentType := multipartBody(t, nil, []byte("video"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media?kind=sermon_video", body)
	req.Header.Set("Content-Type", contentType)
	req = asPrincipal(req, superAdministrator())
	resp := httptest.NewRecorder()

	MediaUpload(svc, 1<<20, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.uploaded.Kind != enums.MediaKindSermonVideo {
		t.Fatalf("unexpected kind %q", svc.uploaded.Kind)
	}
}

func TestMediaUploadRequiresKindBeforeFile(t *testing.T) {
	body, contentType := multipartBody(t, nil, []byte("image"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", contentType)
	req = asPrincipal(req, superAdministrator())
	resp := httptest.NewRecorder()

	MediaUpload(&stubMediaService{}, 1<<20, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMediaUploadMissingFile(t *testing.T) {
	body, contentType := multipartBody(t, [][2]string{{"kind", "avatar"}}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", contentType)
	req = asPrincipal(req, approvedMember(enums.BranchOne))
	resp := httptest.NewRecorder()

	MediaUpload(&stubMediaService{}, 1<<20, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	env := decodeEnvelope(t, resp)
	if len(env.Errors) != 1 || env.Errors[0].Field != "file" {
		t.Fatalf("unexpected errors %+v", env.Errors)
	}
}

func TestMediaUploadRejectsNonMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req = asPrincipal(req, superAdministrator())
	resp := httptest.NewRecorder()

	MediaUpload(&stubMediaService{}, 1<<20, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMediaDeleteUsesWildcardPath(t *testing.T) {
	svc := &stubMediaService{}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/media/blogs/2026/01/x.png", nil)
	req = addRouteParam(req, "*", "blogs/2026/01/x.png")
	req = asPrincipal(req, superAdministrator())
	resp := httptest.NewRecorder()

	MediaDelete(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.deleted != "blogs/2026/01/x.png" {
		t.Fatalf("unexpected ref %q", svc.deleted)
	}
}
