package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"task-manager/backend/logging"
	"task-manager/backend/models"
	"task-manager/backend/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	// bcrypt only reads the first 72 bytes.
	maxPasswordLength = 72
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthService owns credentials: registration, password checks and tokens.
type AuthService struct {
	store      store.Store
	jwt        *JWTService
	bcryptCost int
}

func NewAuthService(s store.Store, jwtService *JWTService, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{store: s, jwt: jwtService, bcryptCost: bcryptCost}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" {
		return nil, validationErr("username and email are required")
	}
	if len(in.Password) < minPasswordLength || len(in.Password) > maxPasswordLength {
		return nil, validationErr("password must be between %d and %d characters long", minPasswordLength, maxPasswordLength)
	}

	_, err := s.store.Users().FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		logging.Logger.Warnf("Event ID: REGISTER_CONFLICT, Description: Email already registered")
		return nil, fmt.Errorf("user with this email %w", ErrConflict)
	case !errors.Is(err, store.ErrNotFound):
		return nil, fromStore(err, "user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to hash password: %v", ErrInternal, err)
	}

	user := &models.User{Username: in.Username, Email: in.Email, Password: string(hash)}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("user with this username or email %w", ErrConflict)
		}
		return nil, fromStore(err, "user")
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s registered", user.ID.Hex())
	return user, nil
}

// Authenticate checks the password and issues a token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Unknown email")
			return "", ErrInvalidCredentials
		}
		return "", fromStore(err, "user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Wrong password for user %s", user.ID.Hex())
		return "", ErrInvalidCredentials
	}

	token, err := s.jwt.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInternal, err)
	}
	logging.Logger.Infof("Event ID: LOGIN_SUCCESS, Description: User %s logged in", user.ID.Hex())
	return token, nil
}

func (s *AuthService) Validate(token string) (primitive.ObjectID, error) {
	return s.jwt.Validate(token)
}

func (s *AuthService) Profile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, fromStore(err, "user")
	}
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users().Find(ctx, models.UserFilter{})
	if err != nil {
		return nil, fromStore(err, "users")
	}
	return users, nil
}
