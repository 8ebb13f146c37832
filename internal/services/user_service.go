package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Dias221467/achievements/internal/models"
	"github.com/Dias221467/achievements/internal/repository"
	"github.com/Dias221467/achievements/pkg/apperrors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const minPasswordLength = 6

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = apperrors.Unauthorized("invalid credentials")

// UserService encapsulates the business logic for user operations.
type UserService struct {
	repo repository.UserStore
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo repository.UserStore) *UserService {
	return &UserService{
		repo: repo,
	}
}

// RegisterUser validates the account and stores it with a bcrypt hash of
// password.
func (s *UserService) RegisterUser(ctx context.Context, username, email, password string) (*models.User, error) {
	logrus.Info("Registering new user")

	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	verr := apperrors.NewValidationError()
	if username == "" {
		verr.Add("username", models.MsgBlank)
	}
	switch {
	case email == "":
		verr.Add("email", models.MsgBlank)
	case !emailRegex.MatchString(email):
		verr.Add("email", "is invalid")
	}
	if len(password) < minPasswordLength {
		verr.Add("password", fmt.Sprintf("is too short (minimum is %d characters)", minPasswordLength))
	}
	if !verr.Empty() {
		logrus.WithField("errors", verr.Fields).Warn("Invalid registration")
		return nil, verr
	}

	// Hash the user's password.
	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:       username,
		Email:          email,
		HashedPassword: string(hashedPwd),
		Role:           "user",
	}

	createdUser, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			logrus.WithField("email", email).Warn("Email already in use")
			verr.Add("email", "has already been taken")
			return nil, verr
		}
		logrus.WithError(err).Error("User registration failed")
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"userID": createdUser.ID.Hex(),
		"role":   createdUser.Role,
	}).Info("User registered successfully")

	return createdUser, nil
}

// AuthenticateUser verifies the email and password and returns the user if credentials are valid.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	logrus.WithField("email", email).Info("Authenticating user")

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logrus.WithField("email", email).Warn("User not found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// Compare the provided password with the hashed password.
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		logrus.WithField("email", email).Warn("Invalid credentials")
		return nil, ErrInvalidCredentials
	}

	logrus.WithField("userID", user.ID.Hex()).Info("User authenticated successfully")
	return user, nil
}

// GetUser retrieves a user by their ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}

	user, err := s.repo.GetUserByID(ctx, objID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		logrus.WithError(err).Warn("Failed to retrieve user")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
