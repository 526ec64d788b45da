package userapp

import (
	"context"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"

	userEntity "inkwell/internal/core/user"
	userPort "inkwell/internal/ports/user"
)

const tokenTTL = 24 * time.Hour

type UserService struct {
	UserRepository userPort.UserRepository
	jwtKey         []byte
}

func NewUserService(repo userPort.UserRepository, jwtKey []byte) *UserService {
	return &UserService{
		UserRepository: repo,
		jwtKey:         jwtKey,
	}
}

// Register creates a new account with the default role. Username and
// email collisions come back as the dedicated conflict errors.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*userPort.UserDTO, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if verr := validateRegistration(username, email, password); verr != nil {
		return nil, verr
	}

	if existing, err := s.UserRepository.FindByUsername(ctx, username); err == nil && existing != nil {
		return nil, userPort.ErrUsernameTaken
	}
	if existing, err := s.UserRepository.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, userPort.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &userEntity.User{
		ID:           uuid.Must(uuid.NewV4()),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         userEntity.RoleUser,
	}

	if err := s.UserRepository.Create(ctx, u); err != nil {
		return nil, err
	}

	dto := toUserDTO(u, true)
	return &dto, nil
}

// Login verifies credentials and issues a signed bearer token.
func (s *UserService) Login(ctx context.Context, email, password string) (*userPort.LoginResponse, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	u, err := s.UserRepository.FindByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, userPort.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, userPort.ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(tokenTTL)
	claims := &userPort.Claims{
		Role: u.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   u.ID.String(),
			Issuer:    "inkwell",
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtKey)
	if err != nil {
		return nil, err
	}

	return &userPort.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		User:      toUserDTO(u, true),
	}, nil
}

// GetProfile returns the public view of one user.
func (s *UserService) GetProfile(ctx context.Context, username string) (*userPort.UserDTO, error) {
	u, err := s.UserRepository.FindByUsername(ctx, username)
	if err != nil || u == nil {
		return nil, userPort.ErrNotFound
	}
	dto := toUserDTO(u, false)
	return &dto, nil
}

// UpdateProfile lets a user change their own bio and avatar.
func (s *UserService) UpdateProfile(ctx context.Context, actor userPort.Identity, bio, avatarURL *string) (*userPort.UserDTO, error) {
	u, err := s.UserRepository.FindByID(ctx, actor.UserID)
	if err != nil || u == nil {
		return nil, userPort.ErrNotFound
	}

	var errs []userPort.FieldError
	if bio != nil {
		if len([]rune(*bio)) > 500 {
			errs = append(errs, userPort.FieldError{Field: "bio", Message: "bio must be at most 500 characters"})
		} else {
			u.Bio = *bio
		}
	}
	if avatarURL != nil {
		if len(*avatarURL) > 500 {
			errs = append(errs, userPort.FieldError{Field: "avatarUrl", Message: "avatar URL must be at most 500 characters"})
		} else {
			u.AvatarURL = *avatarURL
		}
	}
	if len(errs) > 0 {
		return nil, &userPort.ValidationError{Errors: errs}
	}

	if err := s.UserRepository.Update(ctx, u); err != nil {
		return nil, err
	}
	dto := toUserDTO(u, true)
	return &dto, nil
}

func validateRegistration(username, email, password string) error {
	var errs []userPort.FieldError
	if n := len([]rune(username)); n < 3 || n > 30 {
		errs = append(errs, userPort.FieldError{Field: "username", Message: "username must be 3-30 characters"})
	}
	if !strings.Contains(email, "@") {
		errs = append(errs, userPort.FieldError{Field: "email", Message: "email is not valid"})
	}
	if len(password) < 8 {
		errs = append(errs, userPort.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}
	if len(errs) > 0 {
		return &userPort.ValidationError{Errors: errs}
	}
	return nil
}

func toUserDTO(u *userEntity.User, includeEmail bool) userPort.UserDTO {
	dto := userPort.UserDTO{
		ID:        u.ID.String(),
		Username:  u.Username,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if includeEmail {
		dto.Email = u.Email
	}
	return dto
}
