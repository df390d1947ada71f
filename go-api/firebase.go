package main

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const firebaseIssuerPrefix = "https://securetoken.google.com/"

/* ---------- Public keys ---------- */

// minRefetch bounds how often the key endpoint is hit: kids missing from a
// fresh set don't trigger a fetch within this window, and every fetched set
// is kept at least this long.
const minRefetch = time.Minute

// keySource serves the provider's signing keys by kid. The x509 set is
// refetched once its Cache-Control max-age runs out, or when a token names
// a kid we haven't seen (rotation). Concurrent fetches collapse into one.
type keySource struct {
	url    string
	client *http.Client
	now    func() time.Time
	group  singleflight.Group

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	expires   time.Time
	lastFetch time.Time
	lastErr   error
}

func newKeySource(url string) *keySource {
	return &keySource{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

func (ks *keySource) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	ks.mu.Lock()
	k, ok := ks.keys[kid]
	now := ks.now()
	stale := ks.keys == nil || !now.Before(ks.expires)
	recent := !ks.lastFetch.IsZero() && now.Sub(ks.lastFetch) < minRefetch
	lastErr := ks.lastErr
	ks.mu.Unlock()

	switch {
	case ok && !stale:
		return k, nil
	case recent && lastErr != nil:
		return nil, lastErr
	case recent && !stale:
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}

	if err := ks.refresh(ctx); err != nil {
		return nil, err
	}
	ks.mu.Lock()
	k, ok = ks.keys[kid]
	ks.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return k, nil
}

// refresh fetches the key set without holding mu; callers arriving while a
// fetch is in flight wait for its result.
func (ks *keySource) refresh(ctx context.Context) error {
	_, err, _ := ks.group.Do("keys", func() (interface{}, error) {
		ks.mu.Lock()
		if !ks.lastFetch.IsZero() && ks.now().Sub(ks.lastFetch) < minRefetch {
			// another caller's fetch finished after we looked
			err := ks.lastErr
			ks.mu.Unlock()
			return nil, err
		}
		ks.mu.Unlock()

		keys, ttl, err := ks.fetch(ctx)

		ks.mu.Lock()
		defer ks.mu.Unlock()
		ks.lastFetch = ks.now()
		ks.lastErr = err
		if err != nil {
			return nil, err
		}
		ks.keys = keys
		ks.expires = ks.lastFetch.Add(max(ttl, minRefetch))
		return nil, nil
	})
	return err
}

func (ks *keySource) fetch(ctx context.Context) (map[string]*rsa.PublicKey, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ks.url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := ks.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch signing keys: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 240))
		return nil, 0, fmt.Errorf("fetch signing keys: status=%d body=%q", resp.StatusCode, string(b))
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return nil, 0, fmt.Errorf("decode signing keys: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pem := range certs {
		k, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			log.Printf("[auth] skipping signing key %s: %v", kid, err)
			continue
		}
		keys[kid] = k
	}
	if len(keys) == 0 {
		return nil, 0, errors.New("no usable signing keys")
	}
	return keys, maxAge(resp.Header.Get("Cache-Control")), nil
}

// maxAge reads max-age from a Cache-Control header; zero when absent.
func maxAge(cc string) time.Duration {
	for _, d := range strings.Split(cc, ",") {
		name, val, ok := strings.Cut(strings.TrimSpace(d), "=")
		if !ok || !strings.EqualFold(name, "max-age") {
			continue
		}
		if n, err := strconv.Atoi(strings.Trim(val, `"`)); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return 0
}

/* ---------- ID token verification ---------- */

type firebaseClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// firebaseVerifier checks Firebase Authentication ID tokens: RS256, signed by
// a current securetoken key, aud = project id, iss = securetoken/<project>.
type firebaseVerifier struct {
	projectID string
	keys      *keySource
}

func newFirebaseVerifier(projectID, keysURL string) *firebaseVerifier {
	return &firebaseVerifier{projectID: projectID, keys: newKeySource(keysURL)}
}

func (v *firebaseVerifier) Verify(ctx context.Context, tokenStr string) (Claim, error) {
	claims := &firebaseClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token header has no kid")
		}
		return v.keys.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer(firebaseIssuerPrefix+v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return Claim{}, fmt.Errorf("%w: %v", errUnauthorized, err)
	}
	if !token.Valid || claims.Subject == "" || len(claims.Subject) > 128 {
		return Claim{}, fmt.Errorf("%w: bad subject", errUnauthorized)
	}
	return Claim{Subject: claims.Subject, Email: claims.Email}, nil
}

// newVerifier prefers Firebase; the dev secret is the local fallback.
func newVerifier(cfg Config) IdentityVerifier {
	if cfg.Auth.FirebaseProjectID != "" {
		log.Printf("[auth] verifying Firebase ID tokens for project %s", cfg.Auth.FirebaseProjectID)
		return newFirebaseVerifier(cfg.Auth.FirebaseProjectID, cfg.Auth.KeysURL)
	}
	log.Println("[auth] AUTH_DEV_SECRET set: accepting locally signed dev tokens")
	return newDevVerifier(cfg.Auth.DevSecret)
}
