// Package identity verifies bearer tokens against the hosted identity
// service. Successful lookups are cached in Redis, keyed by token digest.
package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/edumeal/edumeal-api/internal/pkg/jwt"
)

const (
	defaultTimeout = 5 * time.Second
	cachePrefix    = "edumeal:identity:"
)

// ErrUnavailable means the identity service could not be reached.
var ErrUnavailable = errors.New("identity service unavailable")

// Client calls GET {baseURL}/auth/v1/user with the caller's token.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	redis    *redis.Client
	cacheTTL time.Duration
}

type userPayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
}

// NewClient creates a verifier. rdb may be nil to disable caching.
func NewClient(baseURL, apiKey string, rdb *redis.Client, cacheTTL time.Duration) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		redis:    rdb,
		cacheTTL: cacheTTL,
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: transport,
		},
	}
}

// Verify resolves the operator behind token.
func (c *Client) Verify(ctx context.Context, token string) (*jwt.Identity, error) {
	key := cacheKey(token)
	if id := c.cached(ctx, key); id != nil {
		return id, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("identity request error: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status=%d", ErrUnavailable, resp.StatusCode)
	default:
		io.Copy(io.Discard, resp.Body)
		return nil, jwt.ErrInvalidToken
	}

	var user userPayload
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil || user.ID == "" {
		return nil, jwt.ErrInvalidToken
	}

	id := &jwt.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Role:   jwt.AppRole(user.AppMetadata.Role),
	}
	c.store(ctx, key, id)
	return id, nil
}

func (c *Client) cached(ctx context.Context, key string) *jwt.Identity {
	if c.redis == nil {
		return nil
	}
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("Identity cache read failed")
		}
		return nil
	}
	var id jwt.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil
	}
	return &id
}

func (c *Client) store(ctx context.Context, key string, id *jwt.Identity) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(id)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.cacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("Identity cache write failed")
	}
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return cachePrefix + hex.EncodeToString(sum[:])
}
