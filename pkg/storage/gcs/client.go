// Package gcs is a thin Cloud Storage JSON API client for public media objects.
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/config"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
)

const (
	defaultAPIBase = "https://storage.googleapis.com"
	pingTimeout    = 5 * time.Second
	uploadTimeout  = 10 * time.Minute
)

var ErrObjectNotFound = errors.New("gcs object not found")

// Object describes a stored blob.
type Object struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size,string"`
	PublicURL   string `json:"-"`
}

type Client struct {
	httpClient *http.Client
	bucket     string
	apiBase    string
	publicBase string
	tokens     tokenProvider
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	httpClient := &http.Client{Timeout: uploadTimeout}

	var tokens tokenProvider
	switch {
	case gcp.CredentialsJSON != "":
		ts, err := serviceAccountTokens(httpClient, gcp.CredentialsJSON)
		if err != nil {
			return nil, err
		}
		tokens = ts
	case gcp.ApplicationCredentials != "":
		raw, err := os.ReadFile(gcp.ApplicationCredentials)
		if err != nil {
			return nil, fmt.Errorf("reading credentials file: %w", err)
		}
		ts, err := serviceAccountTokens(httpClient, string(raw))
		if err != nil {
			return nil, err
		}
		tokens = ts
	default:
		tokens = metadataTokens(httpClient)
	}

	client := newClient(httpClient, cfg.BucketName, defaultAPIBase, cfg.PublicBaseURL, tokens)
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}
	return client, nil
}

func newClient(httpClient *http.Client, bucket, apiBase, publicBase string, tokens tokenProvider) *Client {
	if publicBase == "" {
		publicBase = defaultAPIBase
	}
	return &Client{
		httpClient: httpClient,
		bucket:     bucket,
		apiBase:    strings.TrimRight(apiBase, "/"),
		publicBase: strings.TrimRight(publicBase, "/"),
		tokens:     tokens,
	}
}

func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

// Ping lists at most one object, which needs storage.objects.list on the bucket.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokens == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/storage/v1/b/%s/o?maxResults=1", c.apiBase, url.PathEscape(c.bucket))
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return statusError("gcs object check failed", resp)
	}
	return nil
}

// Upload streams body into the bucket under name with a simple media upload.
func (c *Client) Upload(ctx context.Context, name, contentType string, body io.Reader) (Object, error) {
	if c == nil || c.tokens == nil {
		return Object{}, errors.New("gcs client not initialized")
	}
	if strings.TrimSpace(name) == "" {
		return Object{}, errors.New("object name required")
	}
	q := url.Values{}
	q.Set("uploadType", "media")
	q.Set("name", name)
	endpoint := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?%s", c.apiBase, url.PathEscape(c.bucket), q.Encode())

	resp, err := c.do(ctx, http.MethodPost, endpoint, body, contentType)
	if err != nil {
		return Object{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return Object{}, statusError("gcs upload failed", resp)
	}

	var obj Object
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return Object{}, fmt.Errorf("decode upload response: %w", err)
	}
	if obj.Name == "" {
		obj.Name = name
	}
	if obj.Bucket == "" {
		obj.Bucket = c.bucket
	}
	obj.PublicURL = c.PublicURL(obj.Name)
	return obj, nil
}

// Delete removes the object. A missing object returns ErrObjectNotFound.
func (c *Client) Delete(ctx context.Context, name string) error {
	if c == nil || c.tokens == nil {
		return errors.New("gcs client not initialized")
	}
	endpoint := fmt.Sprintf("%s/storage/v1/b/%s/o/%s", c.apiBase, url.PathEscape(c.bucket), url.PathEscape(name))
	resp, err := c.do(ctx, http.MethodDelete, endpoint, nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrObjectNotFound
	default:
		return statusError("gcs delete failed", resp)
	}
}

// PublicURL is the anonymous read URL for an object in the bucket.
func (c *Client) PublicURL(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s", c.publicBase, c.bucket, strings.Join(segments, "/"))
}

// ObjectName reverses PublicURL. It reports false for URLs outside the bucket.
func (c *Client) ObjectName(publicURL string) (string, bool) {
	prefix := fmt.Sprintf("%s/%s/", c.publicBase, c.bucket)
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	name, err := url.PathUnescape(strings.TrimPrefix(publicURL, prefix))
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs token: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.httpClient.Do(req)
}

func statusError(prefix string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(b)); msg != "" {
		return fmt.Errorf("%s: %s: %s", prefix, resp.Status, msg)
	}
	return fmt.Errorf("%s: %s", prefix, resp.Status)
}
