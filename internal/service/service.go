// Package service реализует бизнес-логику сервиса учёта ремонтных заказов:
// загружает данные, вызывает движок переходов и сохраняет результат.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/service-tracker/internal/auth"
	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/repository"
	"github.com/mmeshcher/service-tracker/internal/store"
	"github.com/mmeshcher/service-tracker/internal/validation"
	"github.com/mmeshcher/service-tracker/internal/workflow"
)

var (
	// ErrProfileMissing возвращается, если у аутентифицированного пользователя нет профиля.
	ErrProfileMissing = errors.New("failed to initialize session")
	// ErrUsernameTaken возвращается при регистрации занятого имени пользователя.
	ErrUsernameTaken = errors.New("an account with this email already exists")
)

// Principal — аутентифицированный пользователь вместе с профилем.
type Principal struct {
	Session auth.Session
	Profile model.Profile
}

// Actor возвращает исполнителя действий для движка.
func (p *Principal) Actor() workflow.Actor {
	return workflow.Actor{ID: p.Profile.ID, Username: p.Profile.Username, Role: p.Profile.Role}
}

// Service содержит бизнес-логику сервиса.
type Service struct {
	st     store.Store
	repos  *repository.Repositories
	engine *workflow.Engine
	auth   auth.Provider
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewService создаёт сервис поверх хранилища st и провайдера аутентификации.
func NewService(st store.Store, provider auth.Provider, engine *workflow.Engine, logger *zap.Logger) *Service {
	if engine == nil {
		engine = workflow.NewEngine()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		st:     st,
		repos:  repository.New(st),
		engine: engine,
		auth:   provider,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.st != nil {
		return s.st.Close()
	}
	return nil
}

// SignUpInput — данные самостоятельной регистрации.
type SignUpInput struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	Role     model.Role `json:"role" validate:"required,oneof=ADMIN MARKETING ENGINEER PPIC QC FINANCE"`
}

// SignUp регистрирует пользователя и создаёт профиль. Имя пользователя совпадает с почтой.
// Роль CUSTOMER при самостоятельной регистрации недоступна.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*model.Profile, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	taken, err := s.repos.Profiles.UsernameTaken(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	userID, err := s.auth.SignUp(ctx, in.Email, in.Password)
	if errors.Is(err, auth.ErrUserExists) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	p := model.Profile{ID: userID, Username: in.Email, Role: in.Role}
	if err := s.repos.Profiles.Create(ctx, p); err != nil {
		s.logger.Error("profile creation failed after sign up",
			zap.String("userId", userID), zap.Error(err))
		return nil, fmt.Errorf("user created in auth, but failed to create profile: %w", err)
	}
	return &p, nil
}

// Login проверяет учётные данные и загружает профиль. Если профиля нет,
// сессия закрывается.
func (s *Service) Login(ctx context.Context, email, password string) (*Principal, error) {
	sess, err := s.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.principal(ctx, sess)
}

// Authenticate восстанавливает пользователя по токену сессии.
func (s *Service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	sess, err := s.auth.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.principal(ctx, sess)
}

// Logout закрывает сессию.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.auth.SignOut(ctx, token)
}

func (s *Service) principal(ctx context.Context, sess *auth.Session) (*Principal, error) {
	profile, err := s.repos.Profiles.Get(ctx, sess.UserID)
	if err != nil {
		s.logger.Warn("authenticated user has no profile",
			zap.String("userId", sess.UserID), zap.Error(err))
		if signOutErr := s.auth.SignOut(ctx, sess.AccessToken); signOutErr != nil {
			s.logger.Error("sign out after missing profile", zap.Error(signOutErr))
		}
		return nil, ErrProfileMissing
	}
	return &Principal{Session: *sess, Profile: *profile}, nil
}

// Views возвращает разделы, доступные пользователю.
func (s *Service) Views(p *Principal) []workflow.View {
	return s.engine.Policy().Views(p.Profile.Role)
}

func (s *Service) requireView(p *Principal, view workflow.View) error {
	if !s.engine.Policy().CanView(p.Profile.Role, view) {
		return fmt.Errorf("%w: %s cannot open %s", workflow.ErrForbidden, p.Profile.Role, view)
	}
	return nil
}

func (s *Service) requireGlobal(p *Principal, action workflow.Action) error {
	if !s.engine.Policy().AllowsGlobal(p.Profile.Role, action) {
		return fmt.Errorf("%w: %s cannot %s", workflow.ErrForbidden, p.Profile.Role, action)
	}
	return nil
}

func invalid(msg string) error {
	return &workflow.ValidationError{Message: msg}
}
