package utils // package utils provides the token codec used to bind signing sessions

import (
    "errors"
    "strings"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrInvalidToken is returned by Claims when the presented token fails
// signature, structure or expiry checks.  Callers that only need a yes/no
// answer should use Validate instead.
var ErrInvalidToken = errors.New("invalid or expired token")

// SignClaims carries the routing claims embedded in a signing token: the
// session key (project/user/file) plus the opaque meta code supplied by the
// requester.  Standard registered claims (sub, iat, exp) ride alongside.
type SignClaims struct {
    jwt.RegisteredClaims
    ProjectID string `json:"projectId"`
    UserID    string `json:"userId"`
    FileID    string `json:"fileId"`
    MetaCode  string `json:"metaCode"`
}

// TokenCodec issues and validates HS256 signing tokens.  It holds only the
// server-side secret and the configured TTL; it keeps no other state and is
// safe for concurrent use.
type TokenCodec struct {
    secret []byte
    ttl    time.Duration
}

// NewTokenCodec builds a codec from the signing secret and token lifetime.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
    return &TokenCodec{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token embedding the four routing claims.  Expiry is
// deterministic: issued-at plus the configured TTL.
func (c *TokenCodec) Issue(projectID, userID, fileID, metaCode string) (string, error) {
    now := time.Now().UTC()
    claims := SignClaims{
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   userID,
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
        },
        ProjectID: projectID,
        UserID:    userID,
        FileID:    fileID,
        MetaCode:  metaCode,
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return t.SignedString(c.secret)
}

// Validate reports whether the token is well formed, carries a valid HMAC
// signature and has not expired.  It never returns an error: any failure,
// including a malformed token, yields false.
func (c *TokenCodec) Validate(token string) bool {
    _, err := c.parse(token)
    return err == nil
}

// Claims returns the routing claims of a valid token.  Callers must treat
// ErrInvalidToken as an authentication failure; Validate should be called
// first on untrusted input so the failure mode stays observable.
func (c *TokenCodec) Claims(token string) (*SignClaims, error) {
    return c.parse(token)
}

func (c *TokenCodec) parse(token string) (*SignClaims, error) {
    claims := &SignClaims{}
    tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
        // Reject any signing method other than HMAC; the codec only ever
        // issues HS256 tokens.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return c.secret, nil
    })
    if err != nil || !tok.Valid {
        return nil, ErrInvalidToken
    }
    // The library already enforces exp, but the contract promises an explicit
    // expiry check so the behaviour stays testable if parser options change.
    if claims.ExpiresAt == nil || !time.Now().Before(claims.ExpiresAt.Time) {
        return nil, ErrInvalidToken
    }
    return claims, nil
}

// NormalizeBearer strips an optional "Bearer " prefix and surrounding
// whitespace from a token.  The canonical transport is the Authorization
// header carrying "Bearer <raw>" while the human-facing sign URL embeds the
// raw token in its query string; both forms normalize to the raw token
// before validation.
func NormalizeBearer(token string) string {
    token = strings.TrimSpace(token)
    if strings.HasPrefix(token, "Bearer ") {
        token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
    }
    return token
}
