package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TokenTTL = time.Hour

// Claims binds a token to a user id, carried in the "id" claim.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// JWTService issues and checks HS256 bearer tokens.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		ttl:    TokenTTL,
		now:    time.Now,
	}
}

func (s *JWTService) Generate(userID primitive.ObjectID) (string, error) {
	issued := s.now()
	claims := Claims{
		UserID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate returns the user id bound to tokenStr. Any signature, algorithm,
// format or expiry problem yields ErrInvalidToken.
func (s *JWTService) Validate(tokenStr string) (primitive.ObjectID, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return primitive.NilObjectID, fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
		return primitive.NilObjectID, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}
	return id, nil
}
