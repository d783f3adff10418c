package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/civiport-dev/civiport/internal/domain"
	"github.com/civiport-dev/civiport/internal/logger"
)

// Identity is the decoded token payload. Email and role reflect the account
// state at issuance time and may go stale until the token is re-issued.
type Identity struct {
	Id    domain.UserId
	Email domain.Email
	Role  domain.Role
}

type TokenService interface {
	NewToken(user *domain.User) (string, error)
	DecodeToken(jwtStr string) (*Identity, error)
}

// Internal failure classes. Externally both collapse to a 401 so callers
// can't probe which one occurred.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) *Jwt {
	return &Jwt{secretKey, ttl}
}

func (j *Jwt) NewToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{}
	claims["uid"] = user.Id
	claims["email"] = user.Email
	claims["role"] = string(user.Role)
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(j.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("failed to sign token", "error", err)
		return "", errors.New("can't create token")
	}

	return tokenString, nil
}

func (j *Jwt) DecodeToken(jwtStr string) (*Identity, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	uid, ok := claims["uid"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}
	email, ok := claims["email"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}
	role, ok := claims["role"].(string)
	if !ok || !domain.ValidRole(domain.Role(role)) {
		return nil, ErrTokenInvalid
	}

	return &Identity{Id: int64(uid), Email: email, Role: domain.Role(role)}, nil
}
