package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/subhadeepchowdhury41/we-share/events"
	models "github.com/subhadeepchowdhury41/we-share/model"
	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
	"github.com/subhadeepchowdhury41/we-share/repository"
)

type UserService struct {
	users  repository.UserRepository
	events EventPublisher
	logger *zap.Logger
	env    env
	cost   int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewUserService(users repository.UserRepository, publisher EventPublisher, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		events: publisher,
		logger: logger.Named("user_service"),
		env:    defaultEnv(),
		cost:   bcrypt.DefaultCost,
	}
}

func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitize(user), nil
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	return sanitize(user), nil
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return sanitizeAll(users), nil
}

// Create registers a new user with a bcrypt-hashed password.
func (s *UserService) Create(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := models.ValidateRegister(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	name := in.Name
	if name == "" {
		name = in.Username
	}

	user, err := s.users.Create(ctx, models.NewUser{
		ID:           s.env.newID(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         name,
		CreatedAt:    s.env.now(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return sanitize(user), nil
}

// Login checks the credentials and returns the full user projection.
func (s *UserService) Login(ctx context.Context, in models.LoginInput) (*models.User, error) {
	if err := models.ValidateLogin(in); err != nil {
		return nil, err
	}
	user, err := s.ValidateCredentials(ctx, strings.TrimSpace(in.Username), in.Password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.New(apperr.Unauthorized, "invalid username or password")
	}
	return s.FindByID(ctx, user.ID)
}

// ValidateCredentials returns the user when the password matches and nil
// otherwise. A missing user and a wrong password are indistinguishable to
// the caller and take about the same time.
func (s *UserService) ValidateCredentials(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetCredentials(ctx, username)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			s.logger.Debug("credential check failed", zap.String("reason", "unknown user"))
			return nil, nil
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Warn("stored password hash is unusable", zap.String("user_id", user.ID), zap.Error(err))
		}
		s.logger.Debug("credential check failed", zap.String("reason", "password mismatch"), zap.String("user_id", user.ID))
		return nil, nil
	}
	return sanitize(user), nil
}

func (s *UserService) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	patch = trimPatch(patch)
	if err := models.ValidateUserPatch(patch); err != nil {
		return nil, err
	}
	user, err := s.users.Update(ctx, id, patch, s.env.now())
	if err != nil {
		return nil, err
	}
	return sanitize(user), nil
}

// Delete removes the user id on behalf of actorID, who must be that user and
// must present the current password.
func (s *UserService) Delete(ctx context.Context, actorID, id, password string) error {
	if actorID != id {
		return apperr.New(apperr.Forbidden, "users can only delete their own account")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	verified, err := s.ValidateCredentials(ctx, user.Username, password)
	if err != nil {
		return err
	}
	if verified == nil || verified.ID != id {
		return apperr.New(apperr.Unauthorized, "invalid password")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

func (s *UserService) Follow(ctx context.Context, followerID, targetID string) (bool, error) {
	if followerID == targetID {
		return false, apperr.New(apperr.InvalidOperation, "users cannot follow themselves")
	}

	created, err := s.users.Follow(ctx, followerID, targetID, s.env.now())
	if err != nil {
		return false, err
	}
	if !created {
		return false, apperr.New(apperr.AlreadyFollowing, "already following this user")
	}

	if err := s.events.PublishUserFollowed(events.UserFollowedEvent{
		FollowerID: followerID,
		FolloweeID: targetID,
		FollowedAt: s.env.now(),
	}); err != nil {
		s.logger.Warn("failed to publish event", zap.String("subject", events.UserFollowed), zap.Error(err))
	}
	return true, nil
}

// Unfollow returns false without error when there was nothing to remove.
func (s *UserService) Unfollow(ctx context.Context, followerID, targetID string) (bool, error) {
	if followerID == targetID {
		return false, apperr.New(apperr.InvalidOperation, "users cannot unfollow themselves")
	}
	return s.users.Unfollow(ctx, followerID, targetID)
}

func (s *UserService) ListFollowers(ctx context.Context, id string) ([]*models.User, error) {
	users, err := s.users.ListFollowers(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeAll(users), nil
}

func (s *UserService) ListFollowings(ctx context.Context, id string) ([]*models.User, error) {
	users, err := s.users.ListFollowings(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeAll(users), nil
}

func (s *UserService) dummy() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("we-share-timing-guard"), s.cost)
		if err != nil {
			s.logger.Error("failed to build dummy hash", zap.Error(err))
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func sanitize(u *models.User) *models.User {
	if u != nil {
		u.PasswordHash = ""
	}
	return u
}

func sanitizeAll(users []*models.User) []*models.User {
	for _, u := range users {
		sanitize(u)
	}
	return users
}

func trimPatch(p models.UserPatch) models.UserPatch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	return models.UserPatch{
		Name:         trim(p.Name),
		Bio:          trim(p.Bio),
		ProfileImage: trim(p.ProfileImage),
		CoverImage:   trim(p.CoverImage),
	}
}
