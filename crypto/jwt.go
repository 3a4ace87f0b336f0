package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"jduel/domain"
)

// sessionClaims is an unexported struct used for claims.
// Fields must be exported for JSON serialization.
type sessionClaims struct {
	Room   string `json:"room"`
	Player string `json:"player"`
	jwt.RegisteredClaims
}

// SessionTokenManager mints and verifies the opaque credential a player
// receives on first registration in a room. The token proves identity across
// reconnects; rooms additionally keep the minted string and compare it
// verbatim, so one (room, player) pair only ever has one valid token.
type SessionTokenManager struct {
	secretKey []byte
	maxAge    time.Duration
}

func NewSessionTokenManager(secretKey string, maxAge time.Duration) *SessionTokenManager {
	return &SessionTokenManager{
		secretKey: []byte(secretKey),
		maxAge:    maxAge,
	}
}

func (m *SessionTokenManager) Generate(room, player string, now time.Time) (string, error) {
	claims := sessionClaims{
		Room:   room,
		Player: player,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secretKey)

	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.UnexpectedTokenGenerationError, err)
	}

	return signedToken, nil
}

// Verify returns the room code and player name embedded in the token.
func (m *SessionTokenManager) Verify(tokenString string) (string, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (any, error) {
		// Validate the signing method is what we expect (HMAC)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidSigningAlg
		}
		return m.secretKey, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSigningAlg):
			return "", "", err
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", "", domain.ErrExpiredToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return "", "", domain.ErrInvalidTokenSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", "", domain.ErrCorruptedToken
		default:
			return "", "", fmt.Errorf("%w: %w", domain.UnexpectedTokenVerificationError, err)
		}
	}

	if claims, ok := token.Claims.(*sessionClaims); ok && token.Valid {
		return claims.Room, claims.Player, nil
	}

	return "", "", domain.ErrCorruptedToken
}
