package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/vidtube/internal/apierror"
	"github.com/iliyamo/vidtube/internal/config"
	"github.com/iliyamo/vidtube/internal/model"
)

const issuerName = "vidtube"

// AccessClaims are carried by access tokens.  The subject is the user id;
// the profile fields let clients render the current user without a lookup.
type AccessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// RefreshClaims are carried by refresh tokens.  ID (jti) is random so that
// two tokens issued for the same user in the same second still differ.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// TokenPair is one session: a short-lived access token and the refresh
// token that can be exchanged, once, for the next pair.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// Issuer signs and verifies both token kinds.  Access and refresh tokens use
// distinct secrets so one can never be presented as the other.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewIssuer builds an Issuer from process configuration.
func NewIssuer(cfg *config.Config) *Issuer {
	return &Issuer{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTTL(),
		refreshTTL:    cfg.RefreshTTL(),
		now:           time.Now,
	}
}

// IssueAccessToken signs an HS256 access token for u.
func (i *Issuer) IssueAccessToken(u *model.User) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(i.accessTTL)
	claims := AccessClaims{
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   strconv.FormatUint(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueRefreshToken signs an HS256 refresh token for userID.
func (i *Issuer) IssueRefreshToken(userID uint64) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(i.refreshTTL)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   strconv.FormatUint(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssuePair issues a fresh access and refresh token for u.
func (i *Issuer) IssuePair(u *model.User) (TokenPair, error) {
	access, accessExp, err := i.IssueAccessToken(u)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := i.IssueRefreshToken(u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccess validates an access token.  Any failure (bad signature,
// expiry, malformed payload, wrong algorithm) yields apierror.ErrTokenInvalid.
func (i *Issuer) VerifyAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parse(raw, claims, i.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token with the refresh secret.
func (i *Issuer) VerifyRefresh(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parse(raw, claims, i.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func parse(raw string, claims jwt.Claims, secret []byte) error {
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return apierror.ErrTokenInvalid
	}
	return nil
}

// SubjectID parses the numeric user id out of a token subject.
func SubjectID(c jwt.Claims) (uint64, error) {
	sub, err := c.GetSubject()
	if err != nil {
		return 0, apierror.ErrTokenInvalid
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, apierror.ErrTokenInvalid
	}
	return id, nil
}

// HashRefreshToken returns the SHA-256 hex digest stored in place of the raw
// refresh token.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RefreshTokenMatches reports, in constant time, whether raw hashes to
// storedHash.  An empty storedHash never matches.
func RefreshTokenMatches(raw, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	got := HashRefreshToken(raw)
	return subtle.ConstantTimeCompare([]byte(got), []byte(storedHash)) == 1
}
