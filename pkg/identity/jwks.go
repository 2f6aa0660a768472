package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

type JWKSet struct {
	Keys []JWK `json:"keys"`
}

type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// NewJWKSet publishes a single RSA key. Used by tests and local fakes of the provider.
func NewJWKSet(kid string, publicKey *rsa.PublicKey) (JWKSet, error) {
	if publicKey == nil {
		return JWKSet{}, errors.New("missing public key")
	}
	return JWKSet{Keys: []JWK{{
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		Kid: kid,
		N:   base64.RawURLEncoding.EncodeToString(publicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(publicKey.E)).Bytes()),
	}}}, nil
}

// PublicKey decodes an RSA JWK.
func (k JWK) PublicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	exponent := new(big.Int).SetBytes(e)
	if !exponent.IsInt64() || exponent.Int64() <= 1 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exponent.Int64())}, nil
}

var errUnknownKey = errors.New("unknown signing key")

// keyCache holds the provider's signing keys until the advertised expiry.
type keyCache struct {
	mu          sync.Mutex
	keys        map[string]*rsa.PublicKey
	expiry      time.Time
	lastRefresh time.Time
	minRefresh  time.Duration
	fallbackTTL time.Duration
	now         func() time.Time
	fetch       func(context.Context) (map[string]*rsa.PublicKey, time.Duration, error)
}

func (c *keyCache) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.keys == nil || !now.Before(c.expiry) {
		if err := c.refreshLocked(ctx, now); err != nil {
			return nil, err
		}
	}
	if key, ok := c.keys[kid]; ok {
		return key, nil
	}

	// rotated keys: refresh once, but never more often than minRefresh
	if now.Sub(c.lastRefresh) >= c.minRefresh {
		if err := c.refreshLocked(ctx, now); err != nil {
			return nil, err
		}
		if key, ok := c.keys[kid]; ok {
			return key, nil
		}
	}
	return nil, errUnknownKey
}

func (c *keyCache) refreshLocked(ctx context.Context, now time.Time) error {
	keys, ttl, err := c.fetch(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ttl <= 0 {
		ttl = c.fallbackTTL
	}
	c.keys = keys
	c.expiry = now.Add(ttl)
	c.lastRefresh = now
	return nil
}

func fetchJWKS(client *http.Client, url string) func(context.Context) (map[string]*rsa.PublicKey, time.Duration, error) {
	return func(ctx context.Context) (map[string]*rsa.PublicKey, time.Duration, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, 0, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, 0, fmt.Errorf("jwks endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(b)))
		}

		var set JWKSet
		if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
			return nil, 0, fmt.Errorf("decode jwks: %w", err)
		}

		keys := make(map[string]*rsa.PublicKey, len(set.Keys))
		for _, jwk := range set.Keys {
			if jwk.Kid == "" || (jwk.Use != "" && jwk.Use != "sig") {
				continue
			}
			key, err := jwk.PublicKey()
			if err != nil {
				continue
			}
			keys[jwk.Kid] = key
		}
		if len(keys) == 0 {
			return nil, 0, errors.New("jwks contained no usable keys")
		}
		return keys, maxAge(resp.Header.Get("Cache-Control")), nil
	}
}

func maxAge(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(strings.ToLower(directive), "max-age=") {
			continue
		}
		seconds, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(directive), "max-age="))
		if err != nil || seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	return 0
}
