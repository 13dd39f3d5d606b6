package account

import (
	"time"

	"github.com/example/shophub/pkg/apperr"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by the bearer token. BankAccountID rides along so the
// catalog service can validate checkout without an extra lookup.
type Claims struct {
	Role          string `json:"role"`
	Email         string `json:"email"`
	BankAccountID string `json:"bank_account_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

func (t *TokenIssuer) Issue(userID, role, email, bankAccountID string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:          role,
		Email:         email,
		BankAccountID: bankAccountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *TokenIssuer) Parse(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.New(apperr.KindUnauthorized, "unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperr.Wrap(apperr.KindUnauthorized, err, "invalid token")
	}
	return &claims, nil
}
