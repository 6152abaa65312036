package backendfake

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const refreshTokenLength = 32

var errTokenInvalid = errors.New("token is invalid or expired")

type storedRefreshToken struct {
	Token  string
	UserID int
	Iat    time.Time
}

func (b *Backend) createAccessToken(account *account, exp time.Time) (string, error) {
	now := b.nowFunc()
	claims := jwt.MapClaims{
		"iss":        b.issuer,
		"sub":        fmt.Sprint(account.ID),
		"user_id":    account.ID,
		"username":   account.Username,
		"token_type": "access",
		"gen":        b.generation.Load(),
		"iat":        now.Unix(),
		"exp":        exp.Unix(),
		"jti":        uuid.New().String(),
	}
	return b.signer.Sign(claims)
}

func (b *Backend) issueAccessToken(account *account) (string, error) {
	return b.createAccessToken(account, b.nowFunc().Add(b.accessTTL))
}

// createRefreshToken replaces any refresh token the user already holds
func (b *Backend) createRefreshToken(account *account) (string, error) {
	if existing, ok := b.tokens.GetByUserID(account.ID); ok {
		b.tokens.Delete(existing.Token)
	}

	tokenBytes := make([]byte, refreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	tokenStr := hex.EncodeToString(tokenBytes)
	b.tokens.Upsert(&storedRefreshToken{
		Token:  tokenStr,
		UserID: account.ID,
		Iat:    b.nowFunc(),
	})
	return tokenStr, nil
}

// verifyAccessToken returns the account an access token was issued to
func (b *Backend) verifyAccessToken(raw string) (*account, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, b.signer.GetVerificationKey,
		jwt.WithTimeFunc(b.nowFunc),
		jwt.WithIssuer(b.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errTokenInvalid, err)
	}
	if claims["token_type"] != "access" {
		return nil, errTokenInvalid
	}
	gen, _ := claims["gen"].(float64)
	if int64(gen) < b.generation.Load() {
		return nil, errTokenInvalid
	}
	username, _ := claims["username"].(string)
	account, ok := b.accounts.byUsername(username)
	if !ok {
		return nil, errTokenInvalid
	}
	return account, nil
}
