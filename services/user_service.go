package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"parkwatch-be/models"
	"parkwatch-be/rbac"
	"parkwatch-be/repository"
	authUtils "parkwatch-be/utils"
)

const minPasswordLength = 6

type UserService struct {
	repo  repository.Repository
	jwt   *authUtils.JWTManager
	media *MediaService
	l     *zap.Logger
}

func NewUserService(repo repository.Repository, jwt *authUtils.JWTManager, media *MediaService, l *zap.Logger) *UserService {
	return &UserService{repo: repo, jwt: jwt, media: media, l: l.Named("user")}
}

type RegisterArgs struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	PhoneNumber string
	Address     string
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func validPhone(p string) bool {
	if len(p) != 11 {
		return false
	}
	for _, r := range p {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Register creates a citizen account and signs it in
func (s *UserService) Register(ctx context.Context, args RegisterArgs) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(args.Email))
	switch {
	case strings.TrimSpace(args.FirstName) == "" || strings.TrimSpace(args.LastName) == "":
		return nil, ValidationError("first and last name are required")
	case email == "":
		return nil, ValidationError("email is required")
	case len(args.Password) < minPasswordLength:
		return nil, ValidationError("password must be at least %d characters", minPasswordLength)
	case !validPhone(args.PhoneNumber):
		return nil, ValidationError("phone number must be 11 digits")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ValidationError("invalid email address")
	}

	now := time.Now()
	u := &models.User{
		ID:          primitive.NewObjectID(),
		FirstName:   strings.TrimSpace(args.FirstName),
		LastName:    strings.TrimSpace(args.LastName),
		Email:       email,
		Password:    args.Password,
		Role:        models.RoleUser,
		PhoneNumber: args.PhoneNumber,
		Address:     strings.TrimSpace(args.Address),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.HashPassword(); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ConflictError("email is already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.l.Info("user registered", zap.Stringer("id", u.ID))
	return s.issue(u)
}

func (s *UserService) issue(u *models.User) (*AuthResult, error) {
	token, err := s.jwt.GenerateToken(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{Token: token, User: u}, nil
}

// Login checks credentials and issues a token
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &Error{Kind: KindUnauthenticated, Message: "invalid email or password"}
	}
	if err != nil {
		return nil, err
	}
	if !u.ComparePassword(password) {
		return nil, &Error{Kind: KindUnauthenticated, Message: "invalid email or password"}
	}
	return s.issue(u)
}

func (s *UserService) Profile(ctx context.Context, actor Actor) (*models.User, error) {
	u, err := s.repo.GetUser(ctx, actor.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFoundError("user not found")
	}
	return u, err
}

type UpdateProfileArgs struct {
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	Address     *string
	Avatar      *Upload
}

func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, args UpdateProfileArgs) (*models.User, error) {
	cur, err := s.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}
	if args.PhoneNumber != nil && !validPhone(*args.PhoneNumber) {
		return nil, ValidationError("phone number must be 11 digits")
	}
	for _, name := range []*string{args.FirstName, args.LastName} {
		if name != nil && strings.TrimSpace(*name) == "" {
			return nil, ValidationError("name cannot be empty")
		}
	}

	update := repository.UpdateUserArgs{
		FirstName:   args.FirstName,
		LastName:    args.LastName,
		PhoneNumber: args.PhoneNumber,
		Address:     args.Address,
	}
	if args.Avatar != nil {
		images, err := s.media.UploadAll(ctx, FolderAvatars, []Upload{*args.Avatar})
		if err != nil {
			return nil, err
		}
		update.Avatar = &images[0]
	}

	u, err := s.repo.UpdateUser(ctx, actor.ID, update)
	if err != nil {
		if update.Avatar != nil {
			s.media.DeleteAll(context.WithoutCancel(ctx), []models.Image{*update.Avatar})
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("user not found")
		}
		return nil, err
	}
	if update.Avatar != nil && cur.Avatar != nil {
		s.media.DeleteAll(context.WithoutCancel(ctx), []models.Image{*cur.Avatar})
	}
	return u, nil
}

// UpdatePushToken stores the device token used by the notification service
func (s *UserService) UpdatePushToken(ctx context.Context, actor Actor, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ValidationError("push token is required")
	}
	_, err := s.repo.UpdateUser(ctx, actor.ID, repository.UpdateUserArgs{ExpoPushToken: &token})
	if errors.Is(err, repository.ErrNotFound) {
		return NotFoundError("user not found")
	}
	return err
}

// ChangeRole grants or revokes moderator rights
func (s *UserService) ChangeRole(ctx context.Context, actor Actor, userID primitive.ObjectID, role models.Role) (*models.User, error) {
	if err := requirePermission(actor, rbac.ManageRoles); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, ValidationError("unknown role %q", role)
	}
	if userID == actor.ID {
		return nil, PermissionError("cannot change your own role")
	}
	u, err := s.repo.UpdateUser(ctx, userID, repository.UpdateUserArgs{Role: &role})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFoundError("user not found")
	}
	if err != nil {
		return nil, err
	}
	s.l.Info("role changed", zap.Stringer("user", userID), zap.String("role", string(role)), zap.Stringer("by", actor.ID))
	return u, nil
}
