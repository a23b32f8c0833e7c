package config

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Validate checks cross-field constraints that individual env lookups
// cannot express.
func (c *Config) Validate() error {
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.AccessTTLMin <= 0 {
		return errors.New("ACCESS_TOKEN_TTL_MIN must be positive")
	}
	if c.RefreshTTLDays <= 0 {
		return errors.New("REFRESH_TOKEN_TTL_DAYS must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return errors.New("BCRYPT_COST out of range")
	}
	return nil
}
