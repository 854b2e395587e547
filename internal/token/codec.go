package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/desertthunder/filmx/internal/shared"
)

// ErrMalformedCredential is returned when a credential is not structurally a signed-claims token
// or lacks the claims the client needs to make local decisions.
var ErrMalformedCredential = errors.New("malformed credential")

// Claims are the unverified claims read from a credential's payload.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time // zero when the credential carries no iat
	Raw       map[string]any
}

// Expired reports whether the claims are expired at now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// Codec reads credential claims without contacting the network.
//
// Codec never verifies signatures: the decoded claims drive local presentation decisions only
// (whether to try the stored credential at all, when to drop it). The remote API remains the sole
// authority on whether a credential is valid, and nothing here may be used to grant access.
type Codec struct {
	parser *jwt.Parser
	leeway time.Duration
}

// NewCodec creates a [Codec]. A positive leeway treats credentials as expired that much earlier.
func NewCodec(leeway time.Duration) *Codec {
	if leeway < 0 {
		leeway = 0
	}
	return &Codec{parser: jwt.NewParser(), leeway: leeway}
}

// Decode extracts the claims from credential. The credential must have three dot-separated segments
// whose middle segment is base64url-encoded JSON carrying an "exp" claim in seconds since the epoch.
func (c *Codec) Decode(credential string) (Claims, error) {
	if strings.Count(credential, ".") != 2 {
		return Claims{}, fmt.Errorf("%w: expected 3 segments", ErrMalformedCredential)
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := c.parser.ParseUnverified(credential, mapClaims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: exp: %v", ErrMalformedCredential, err)
	}
	if exp == nil {
		return Claims{}, fmt.Errorf("%w: missing exp claim", ErrMalformedCredential)
	}

	claims := Claims{
		Subject:   subject(mapClaims["sub"]),
		ExpiresAt: exp.Time,
		Raw:       map[string]any(mapClaims),
	}

	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}

	return claims, nil
}

// IsExpired reports whether claims are expired at now, after applying the codec's leeway.
func (c *Codec) IsExpired(claims Claims, now time.Time) bool {
	return claims.Expired(now.Add(c.leeway))
}

// Check returns an error wrapping [shared.ErrTokenExpired] when claims are expired at now, after leeway.
func (c *Codec) Check(claims Claims, now time.Time) error {
	if c.IsExpired(claims, now) {
		return fmt.Errorf("%w at %s", shared.ErrTokenExpired, claims.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return nil
}

// Leeway returns how much earlier than their exp credentials are treated as expired.
func (c *Codec) Leeway() time.Duration { return c.leeway }

// OAuth2Token wraps credential as a bearer [oauth2.Token] carrying the decoded expiry.
func (c *Codec) OAuth2Token(credential string, claims Claims) *oauth2.Token {
	return &oauth2.Token{
		AccessToken: credential,
		TokenType:   "Bearer",
		Expiry:      claims.ExpiresAt,
	}
}

// subject renders the sub claim, which some servers emit as a number.
func subject(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
