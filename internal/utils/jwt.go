package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/influyo/auth-service/internal/model"
)

// AccessToken is the signed JWT handed to clients plus its expiry.
// Access tokens are short-lived and self-contained; the server keeps no
// copy except, after logout, the jti on the denylist.
type AccessToken struct {
	Token string    // serialized JWT
	JTI   string    // unique token id, used for denylisting
	Exp   time.Time // UTC expiration time
}

// Identity is what a verified access token resolves to.
type Identity struct {
	UserID uint64
	Role   model.Role
	JTI    string
	Exp    time.Time
}

var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken signs an HS256 JWT for a user. Claims: sub, role, jti,
// iat, exp. TTL is expressed in minutes to match the config knob.
func NewAccessToken(secret string, userID uint64, role model.Role, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	jti := uuid.NewString()

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"jti":  jti,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, JTI: jti, Exp: exp}, nil
}

// ParseAccessToken verifies signature and expiry and extracts the identity.
// Any defect (bad signature, wrong algorithm, expired, malformed claims)
// collapses to ErrInvalidToken; the distinction is for logs only.
func ParseAccessToken(secret, raw string) (Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return Identity{}, ErrInvalidToken
	}
	roleStr, _ := claims["role"].(string)
	role := model.Role(roleStr)
	if !role.Valid() {
		return Identity{}, ErrInvalidToken
	}
	jti, _ := claims["jti"].(string)

	id := Identity{UserID: uint64(sub), Role: role, JTI: jti}
	if expVal, ok := claims["exp"].(float64); ok {
		id.Exp = time.Unix(int64(expVal), 0).UTC()
	}
	return id, nil
}
