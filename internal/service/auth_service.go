package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"auth-api/internal/domain"
	"auth-api/internal/email"
)

// AuthService orquesta los flujos de autenticación: login, logout, refresh,
// reset de contraseña, verificación de email y login con Google.
//
// Cada flujo colapsa sus fallas internas en un único error con mensaje fijo;
// el detalle (firma inválida, registro consumido, usuario inexistente) no
// debe filtrarse al caller.
type AuthService struct {
	logger      *zap.Logger
	users       *UserService
	tokens      *TokenService
	store       TokenStore
	linker      *IdentityLinker
	emailSender email.Sender
}

func NewAuthService(logger *zap.Logger, users *UserService, tokens *TokenService, store TokenStore, linker *IdentityLinker, emailSender email.Sender) *AuthService {
	return &AuthService{
		logger:      logger,
		users:       users,
		tokens:      tokens,
		store:       store,
		linker:      linker,
		emailSender: emailSender,
	}
}

var (
	ErrAuthenticate            = errors.New("please authenticate")
	ErrPasswordResetFailed     = errors.New("password reset failed")
	ErrEmailVerificationFailed = errors.New("email verification failed")
	ErrRefreshTokenNotFound    = errors.New("refresh token not found")
)

// Login verifica credenciales y emite un par access+refresh.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (domain.User, TokenPair, error) {
	user, err := s.users.Authenticate(ctx, emailAddr, password)
	if err != nil {
		if !errors.Is(err, ErrIncorrectCredentials) {
			s.logger.Error("login lookup failed", zap.Error(err))
		}
		return domain.User{}, TokenPair{}, err
	}
	pair, err := s.tokens.GenerateAuthTokens(user)
	if err != nil {
		s.logger.Error("issue auth tokens failed", zap.Error(err))
		return domain.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Register crea el usuario y emite su primer par de tokens.
func (s *AuthService) Register(ctx context.Context, input CreateUserInput) (domain.User, TokenPair, error) {
	user, err := s.users.CreateUser(ctx, input)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	pair, err := s.tokens.GenerateAuthTokens(user)
	if err != nil {
		s.logger.Error("issue auth tokens failed", zap.Error(err))
		return domain.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Logout consume el registro del refresh token sin verificar su firma.
// No emite tokens.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	_, err := s.store.FindAndDelete(refreshToken, domain.TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return ErrRefreshTokenNotFound
		}
		s.logger.Error("logout failed", zap.Error(err))
		return err
	}
	return nil
}

// RefreshAuth rota el par: el registro consumido se elimina antes de emitir
// el nuevo, así una segunda presentación del mismo token falla.
func (s *AuthService) RefreshAuth(ctx context.Context, refreshToken string) (TokenPair, error) {
	rec, err := s.tokens.VerifyToken(refreshToken, domain.TokenTypeRefresh)
	if err != nil {
		s.debugCollapse("refresh", err)
		return TokenPair{}, ErrAuthenticate
	}
	user, err := s.users.GetByID(ctx, rec.UserID)
	if err != nil {
		s.debugCollapse("refresh", err)
		return TokenPair{}, ErrAuthenticate
	}
	pair, err := s.tokens.GenerateAuthTokens(user)
	if err != nil {
		s.debugCollapse("refresh", err)
		return TokenPair{}, ErrAuthenticate
	}
	return pair, nil
}

// ForgotPassword emite un reset token y lo envía por correo.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	token, err := s.tokens.GenerateResetPasswordToken(user)
	if err != nil {
		s.logger.Error("issue reset token failed", zap.Error(err))
		return err
	}
	return s.emailSender.SendResetPasswordEmail(ctx, user.Email, token)
}

// ResetPassword consume el reset token, cambia la contraseña e invalida
// todos los reset tokens pendientes del usuario.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	rec, err := s.tokens.VerifyToken(resetToken, domain.TokenTypeResetPassword)
	if err != nil {
		s.debugCollapse("reset password", err)
		return ErrPasswordResetFailed
	}
	user, err := s.users.GetByID(ctx, rec.UserID)
	if err != nil {
		s.debugCollapse("reset password", err)
		return ErrPasswordResetFailed
	}
	if err := s.users.UpdatePassword(ctx, user.ID, newPassword); err != nil {
		s.debugCollapse("reset password", err)
		return ErrPasswordResetFailed
	}
	if err := s.store.DeleteAllForUser(user.ID, domain.TokenTypeResetPassword); err != nil {
		s.debugCollapse("reset password", err)
		return ErrPasswordResetFailed
	}
	return nil
}

// SendVerificationEmail emite un verify token y lo envía por correo.
func (s *AuthService) SendVerificationEmail(ctx context.Context, user domain.User) error {
	token, err := s.tokens.GenerateVerifyEmailToken(user)
	if err != nil {
		s.logger.Error("issue verify token failed", zap.Error(err))
		return err
	}
	return s.emailSender.SendVerificationEmail(ctx, user.Email, token)
}

// VerifyEmail consume el verify token, invalida los pendientes y marca el
// email como verificado. La marca se intenta aunque la baja masiva falle.
func (s *AuthService) VerifyEmail(ctx context.Context, verifyToken string) error {
	rec, err := s.tokens.VerifyToken(verifyToken, domain.TokenTypeVerifyEmail)
	if err != nil {
		s.debugCollapse("verify email", err)
		return ErrEmailVerificationFailed
	}
	user, err := s.users.GetByID(ctx, rec.UserID)
	if err != nil {
		s.debugCollapse("verify email", err)
		return ErrEmailVerificationFailed
	}
	deleteErr := s.store.DeleteAllForUser(user.ID, domain.TokenTypeVerifyEmail)
	if deleteErr != nil {
		s.debugCollapse("verify email", deleteErr)
	}
	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		s.debugCollapse("verify email", err)
		return ErrEmailVerificationFailed
	}
	if deleteErr != nil {
		return ErrEmailVerificationFailed
	}
	return nil
}

// GoogleLogin resuelve el perfil contra el directorio de usuarios y emite
// un par de tokens.
func (s *AuthService) GoogleLogin(ctx context.Context, profile GoogleProfile) (domain.User, TokenPair, error) {
	user, err := s.linker.Resolve(ctx, profile)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	pair, err := s.tokens.GenerateAuthTokens(user)
	if err != nil {
		s.logger.Error("issue auth tokens failed", zap.Error(err))
		return domain.User{}, TokenPair{}, ErrGoogleAuthFailed
	}
	return user, pair, nil
}

func (s *AuthService) debugCollapse(flow string, err error) {
	if s.logger != nil {
		s.logger.Debug("auth flow failure collapsed", zap.String("flow", flow), zap.Error(err))
	}
}
