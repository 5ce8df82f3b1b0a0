package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"auth-api/internal/domain"
	"auth-api/internal/repository"
)

// UserService coordina reglas de negocio para usuarios: alta, credenciales
// y las mutaciones que usan los flujos de autenticación.
type UserService struct {
	logger *zap.Logger
	users  repository.UserRepository
}

func NewUserService(logger *zap.Logger, users repository.UserRepository) *UserService {
	return &UserService{
		logger: logger,
		users:  users,
	}
}

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already taken")
	// ErrIncorrectCredentials cubre tanto email inexistente como contraseña
	// incorrecta; ambas causas deben ser indistinguibles para el caller.
	ErrIncorrectCredentials = errors.New("incorrect email or password")
	ErrInvalidEmail         = errors.New("invalid email")
)

const pgUniqueViolation = "23505"

type CreateUserInput struct {
	Email           string
	Name            string
	Password        string
	Role            string
	GoogleID        string
	IsEmailVerified bool
}

func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr := normalizeEmail(input.Email)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}

	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = domain.RoleUser
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:              uuid.NewString(),
		Email:           emailAddr,
		Name:            strings.TrimSpace(input.Name),
		Role:            role,
		GoogleID:        strings.TrimSpace(input.GoogleID),
		PasswordHash:    string(hashBytes),
		IsEmailVerified: input.IsEmailVerified,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		// La restricción de unicidad cierra la carrera entre el chequeo
		// previo y el INSERT.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	return user, nil
}

// Authenticate verifica email+contraseña. Sin efectos secundarios.
func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrIncorrectCredentials
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrIncorrectCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrIncorrectCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrIncorrectCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, emailAddr string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) GetByGoogleID(ctx context.Context, googleID string) (domain.User, error) {
	user, err := s.users.GetByGoogleID(ctx, googleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, id, newPassword string) error {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, string(hashBytes))
}

func (s *UserService) MarkEmailVerified(ctx context.Context, id string) error {
	return s.users.SetEmailVerified(ctx, id, true)
}

func (s *UserService) LinkGoogle(ctx context.Context, id, googleID string) error {
	return s.users.LinkGoogle(ctx, id, googleID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
