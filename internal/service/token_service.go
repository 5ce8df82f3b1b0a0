package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"auth-api/internal/domain"
)

// TokenService emite y valida tokens JWT firmados (HS256). Los access tokens
// son stateless; refresh, reset-password y verify-email se persisten en el
// TokenStore y se consumen de forma atómica al verificarlos.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	verifyTTL  time.Duration
	issuer     string
	store      TokenStore
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type Claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

type TokenTTLs struct {
	Access      time.Duration
	Refresh     time.Duration
	Reset       time.Duration
	VerifyEmail time.Duration
}

func NewTokenService(secret string, ttls TokenTTLs, store TokenStore) *TokenService {
	if ttls.Access <= 0 {
		ttls.Access = 30 * time.Minute
	}
	if ttls.Refresh <= 0 {
		ttls.Refresh = 30 * 24 * time.Hour
	}
	if ttls.Reset <= 0 {
		ttls.Reset = 10 * time.Minute
	}
	if ttls.VerifyEmail <= 0 {
		ttls.VerifyEmail = 10 * time.Minute
	}
	if store == nil {
		store = NewMemoryTokenStore()
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  ttls.Access,
		refreshTTL: ttls.Refresh,
		resetTTL:   ttls.Reset,
		verifyTTL:  ttls.VerifyEmail,
		issuer:     "auth-api",
		store:      store,
	}
}

// GenerateAuthTokens firma un par access+refresh y persiste el registro del
// refresh token.
func (s *TokenService) GenerateAuthTokens(user domain.User) (TokenPair, error) {
	if len(s.secret) == 0 {
		return TokenPair{}, ErrJWTInvalid
	}
	now := time.Now().UTC()
	access, err := s.signToken(user.ID, now, s.accessTTL, domain.TokenTypeAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.signToken(user.ID, now, s.refreshTTL, domain.TokenTypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.saveRecord(refresh, user.ID, domain.TokenTypeRefresh, now.Add(s.refreshTTL)); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// GenerateResetPasswordToken firma un token de un solo uso para cambiar la
// contraseña y persiste su registro.
func (s *TokenService) GenerateResetPasswordToken(user domain.User) (string, error) {
	return s.generateSingleUseToken(user, domain.TokenTypeResetPassword, s.resetTTL)
}

// GenerateVerifyEmailToken firma un token de un solo uso para verificar el
// email y persiste su registro.
func (s *TokenService) GenerateVerifyEmailToken(user domain.User) (string, error) {
	return s.generateSingleUseToken(user, domain.TokenTypeVerifyEmail, s.verifyTTL)
}

func (s *TokenService) generateSingleUseToken(user domain.User, typ domain.TokenType, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrJWTInvalid
	}
	now := time.Now().UTC()
	token, err := s.signToken(user.ID, now, ttl, typ)
	if err != nil {
		return "", err
	}
	if err := s.saveRecord(token, user.ID, typ, now.Add(ttl)); err != nil {
		return "", err
	}
	return token, nil
}

// VerifyToken valida firma, expiración, emisor y tipo. Para los tipos
// persistidos consume el registro vía FindAndDelete: la ausencia (ya usado,
// expirado o en blacklist) se reporta como domain.ErrTokenNotFound.
func (s *TokenService) VerifyToken(tokenString string, typ domain.TokenType) (domain.TokenRecord, error) {
	claims, err := s.parseAndCheck(tokenString, typ)
	if err != nil {
		return domain.TokenRecord{}, err
	}
	if typ == domain.TokenTypeAccess {
		return domain.TokenRecord{
			UserID: claims.Subject,
			Type:   domain.TokenTypeAccess,
		}, nil
	}
	if s.store == nil {
		return domain.TokenRecord{}, ErrJWTInvalid
	}
	return s.store.FindAndDelete(tokenString, typ)
}

// ParseAccessToken valida un access token sin tocar el TokenStore.
func (s *TokenService) ParseAccessToken(tokenString string) (Claims, error) {
	return s.parseAndCheck(tokenString, domain.TokenTypeAccess)
}

func (s *TokenService) saveRecord(token, userID string, typ domain.TokenType, expiresAt time.Time) error {
	if s.store == nil {
		return ErrJWTInvalid
	}
	return s.store.Save(domain.TokenRecord{
		Token:     token,
		UserID:    userID,
		Type:      typ,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *TokenService) signToken(userID string, now time.Time, ttl time.Duration, typ domain.TokenType) (string, error) {
	// El jti hace único cada token firmado: dos emisiones para el mismo
	// usuario en el mismo segundo no pueden colisionar en el TokenStore.
	claims := Claims{
		TokenType: string(typ),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) parseAndCheck(tokenString string, typ domain.TokenType) (Claims, error) {
	if len(s.secret) == 0 {
		return Claims{}, ErrJWTInvalid
	}
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrJWTInvalid
	}
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != string(typ) {
		return Claims{}, ErrJWTInvalid
	}
	if !s.isValidClaims(claims) {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *TokenService) parseToken(tokenString string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *TokenService) isValidClaims(claims Claims) bool {
	if strings.TrimSpace(claims.Subject) == "" {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
