package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidToken covers malformed or tampered tokens.
	ErrInvalidToken = errors.New("invalid download token")
	// ErrTokenExpired is returned once the embedded expiry has passed.
	ErrTokenExpired = errors.New("download token expired")
)

// SignedToken is the metadata carried by a download token.
type SignedToken struct {
	Owner     string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner creates and validates HMAC-signed download tokens of the form
// owner.expiry.base64(path).signature.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate signs a token granting access to relPath on behalf of owner.
func (s *SignedURLSigner) Generate(owner, relPath string) (string, time.Time, error) {
	if owner == "" || relPath == "" {
		return "", time.Time{}, errors.New("owner and path required")
	}
	if strings.Contains(owner, ".") {
		return "", time.Time{}, fmt.Errorf("owner %q must not contain '.'", owner)
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	token := strings.Join([]string{owner, ts, encodedPath, s.sign(owner, ts, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Parse validates token. allowExpired skips the expiry check.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (*SignedToken, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return nil, ErrInvalidToken
	}
	owner, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(owner, ts, encodedPath)), []byte(signature)) {
		return nil, ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return nil, ErrInvalidToken
	}
	expiresAt := time.Unix(expUnix, 0)
	if !allowExpired && s.now().After(expiresAt) {
		return nil, ErrTokenExpired
	}
	return &SignedToken{Owner: owner, Path: string(rawPath), ExpiresAt: expiresAt}, nil
}

func (s *SignedURLSigner) sign(owner, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(owner + "|" + ts + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
