package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"go.uber.org/zap"

	"auth-api/internal/domain"
)

// GoogleProfile es el perfil ya verificado que devuelve el proveedor OAuth.
type GoogleProfile struct {
	ID    string
	Email string
	Name  string
}

// ErrGoogleAuthFailed colapsa cualquier falla inesperada del flujo OAuth.
var ErrGoogleAuthFailed = errors.New("google authentication failed")

// IdentityLinker resuelve un perfil de Google a un usuario local: lo
// encuentra, lo vincula por email o lo crea. Se inyecta explícitamente en
// AuthService, sin registro global de estrategias.
type IdentityLinker struct {
	logger *zap.Logger
	users  *UserService
}

func NewIdentityLinker(logger *zap.Logger, users *UserService) *IdentityLinker {
	return &IdentityLinker{
		logger: logger,
		users:  users,
	}
}

// Resolve aplica la política de vinculación en orden:
//  1. usuario con ese google_id → se devuelve sin cambios (idempotente);
//  2. usuario con el email del perfil → se vincula si aún no tiene google_id;
//     si ya tiene uno se devuelve tal cual;
//  3. si no existe, se crea con contraseña placeholder aleatoria.
func (l *IdentityLinker) Resolve(ctx context.Context, profile GoogleProfile) (domain.User, error) {
	profileID := strings.TrimSpace(profile.ID)
	profileEmail := normalizeEmail(profile.Email)
	if profileID == "" || profileEmail == "" {
		return domain.User{}, ErrGoogleAuthFailed
	}

	user, err := l.users.GetByGoogleID(ctx, profileID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		l.warn("google id lookup failed", err)
		return domain.User{}, ErrGoogleAuthFailed
	}

	existing, err := l.users.GetByEmail(ctx, profileEmail)
	if err == nil {
		if existing.GoogleID != "" {
			// Un google_id distinto con el mismo email no reemplaza el
			// vínculo existente; solo queda registrado.
			if existing.GoogleID != profileID && l.logger != nil {
				l.logger.Warn("google id mismatch for linked user",
					zap.String("user_id", existing.ID),
					zap.String("linked_google_id", existing.GoogleID),
					zap.String("profile_google_id", profileID),
				)
			}
			return existing, nil
		}
		if err := l.users.LinkGoogle(ctx, existing.ID, profileID); err != nil {
			l.warn("link google id failed", err)
			return domain.User{}, ErrGoogleAuthFailed
		}
		existing.GoogleID = profileID
		existing.IsEmailVerified = true
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		l.warn("email lookup failed", err)
		return domain.User{}, ErrGoogleAuthFailed
	}

	placeholder, err := randomPassword()
	if err != nil {
		l.warn("placeholder password failed", err)
		return domain.User{}, ErrGoogleAuthFailed
	}
	user, err = l.users.CreateUser(ctx, CreateUserInput{
		Email:           profileEmail,
		Name:            strings.TrimSpace(profile.Name),
		Password:        placeholder,
		Role:            domain.RoleUser,
		GoogleID:        profileID,
		IsEmailVerified: true,
	})
	if err != nil {
		l.warn("create google user failed", err)
		return domain.User{}, ErrGoogleAuthFailed
	}
	return user, nil
}

func (l *IdentityLinker) warn(msg string, err error) {
	if l.logger != nil {
		l.logger.Warn(msg, zap.Error(err))
	}
}

// randomPassword genera un placeholder no adivinable. Nunca se usa para
// login: el flujo OAuth no pasa por la verificación de contraseña, pero el
// hash siempre queda presente en el registro.
func randomPassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
