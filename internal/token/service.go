package token

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var ErrMalformed = errors.New("malformed token")

type TokenService interface {
	Decode(tokenString string) (*Claims, error)
}

type tokenService struct {
	logger *zap.Logger
	secret []byte
	parser *jwt.Parser
}

// NewTokenService builds a decoder for session tokens. When secret is empty
// the claims are read without signature verification, which is what the
// upstream services historically relied on; configuring JWT_SECRET turns on
// HS256 verification.
func NewTokenService(logger *zap.Logger, secret string) TokenService {
	var key []byte
	if secret != "" {
		key = []byte(secret)
	}
	return &tokenService{
		logger: logger,
		secret: key,
		// expiry is judged by Claims.Live, not by the parser
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

func (s *tokenService) Decode(tokenString string) (*Claims, error) {
	var claims Claims

	if s.secret == nil {
		if _, _, err := s.parser.ParseUnverified(tokenString, &claims); err != nil {
			s.logger.Debug("failed to decode token", zap.Error(err))
			return nil, ErrMalformed
		}
		return &claims, nil
	}

	tkn, err := s.parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		s.logger.Debug("failed to verify token", zap.Error(err))
		return nil, ErrMalformed
	}
	if !tkn.Valid {
		return nil, ErrMalformed
	}
	return &claims, nil
}
