package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/db/models"
)

const (
	// TokenLength is the length of issued bearer tokens, ~238 bits of entropy.
	TokenLength = 40
)

// tokenChars is the charset issued tokens are sampled from.
var tokenChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789") //nolint:gochecknoglobals

// NewToken returns a new random bearer token. Random bytes are rejection
// sampled so every charset character is equally likely.
func NewToken() string {
	var (
		out   = make([]byte, TokenLength)
		buf   = make([]byte, TokenLength*2)
		clen  = len(tokenChars)
		maxRb = 255 - (256 % clen)
		i     int
	)

	for {
		if _, err := rand.Read(buf); err != nil {
			panic("auth: error reading random bytes: " + err.Error())
		}

		for _, rb := range buf {
			c := int(rb)
			if c > maxRb {
				// Skip this byte to avoid modulo bias.
				continue
			}

			out[i] = tokenChars[c%clen]
			i++

			if i == TokenLength {
				return string(out)
			}
		}
	}
}

// IssueToken creates and persists a new bearer token for the user.
func (p *Provider) IssueToken(userID uint64, name string) (string, error) {
	token := models.AuthToken{
		UserID: userID,
		Token:  NewToken(),
		Name:   name,
	}

	if err := p.db.Create(&token).Error; err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	return token.Token, nil
}

// ResolveToken loads the user owning a presented bearer token and stamps the
// token's last use.
func (p *Provider) ResolveToken(token string) (*models.User, error) {
	var row models.AuthToken

	err := p.db.Preload("User").Where("token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}

	if err != nil {
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}

	if !row.User.Active {
		return nil, ErrUserAccountDisabled
	}

	now := time.Now()
	// best effort, a failed stamp does not block the request
	p.db.Model(&row).Update("last_used_at", &now)

	return &row.User, nil
}

// RevokeToken deletes a bearer token, ending its session.
func (p *Provider) RevokeToken(token string) error {
	result := p.db.Where("token = ?", token).Delete(&models.AuthToken{})
	if result.Error != nil {
		return fmt.Errorf("failed to revoke token: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrInvalidToken
	}

	return nil
}

// RevokeUserTokens deletes every token the user holds.
func (p *Provider) RevokeUserTokens(userID uint64) error {
	return p.db.Where("user_id = ?", userID).Delete(&models.AuthToken{}).Error
}
