package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/timegrid/timegrid/internal/common"
	"github.com/timegrid/timegrid/internal/server/models"
)

// Claims extends the registered JWT claims with the caller's user ID and
// organization role. The identity provider that mints the token decides
// the role; this service only reads it.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
	Role   string
}

// GenerateToken mints an HS256 token for the given identity.
func GenerateToken(identity models.Identity, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: identity.UserID,
		Role:   string(identity.Role),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// IdentityFromToken verifies the token and extracts the caller's identity.
// Expired, malformed, or role-less tokens yield ErrInvalidToken.
func IdentityFromToken(tokenString string, secretKey []byte) (models.Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return models.Identity{}, common.ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		return models.Identity{}, common.ErrInvalidToken
	}

	role, ok := models.ParseRole(claims.Role)
	if !ok {
		return models.Identity{}, common.ErrInvalidToken
	}

	return models.Identity{UserID: claims.UserID, Role: role}, nil
}
