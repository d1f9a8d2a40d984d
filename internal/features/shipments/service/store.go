package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"courier-portal/internal/features/shipments/domain"
	"courier-portal/internal/features/shipments/ports"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Store is the primary store facade. Repository calls go to the in-memory
// repository unless an external backend took the method over in Open.
type Store struct {
	ports.Repository

	memory   ports.Repository
	backend  ports.Backend
	replaced []string

	seedSQLPath  string
	passwordCost int
	logger       *zap.Logger
	now          func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSeedSQLPath sets the SQL seed file reported by SeedInMemory.
func WithSeedSQLPath(path string) Option {
	return func(s *Store) { s.seedSQLPath = path }
}

// WithPasswordCost sets the bcrypt cost.
func WithPasswordCost(cost int) Option {
	return func(s *Store) { s.passwordCost = cost }
}

// NewStore returns a store backed by memory only.
func NewStore(memory ports.Repository, opts ...Option) *Store {
	s := &Store{
		memory:       memory,
		passwordCost: bcrypt.DefaultCost,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Repository, _ = newOverlay(memory, nil)
	return s
}

// Open builds the store and, when connect is non-nil, waits for the external
// backend before returning. A failing backend is logged and the in-memory
// repository stays authoritative.
func Open(ctx context.Context, memory ports.Repository, connect ports.BackendConnector, opts ...Option) *Store {
	s := NewStore(memory, opts...)
	if connect == nil {
		s.logger.Info("using in-memory store")
		return s
	}

	backend, err := connect(ctx)
	if err != nil {
		s.logger.Error("failed to connect external backend, using in-memory store", zap.Error(err))
		return s
	}

	s.backend = backend
	s.Repository, s.replaced = newOverlay(memory, backend)
	s.logger.Info("external backend connected",
		zap.String("backend", backend.Name()),
		zap.Strings("methods", s.replaced),
	)
	return s
}

// Backend names the active external backend, or "memory".
func (s *Store) Backend() string {
	if s.backend == nil {
		return "memory"
	}
	return s.backend.Name()
}

// ReplacedMethods lists the repository methods served by the external backend.
func (s *Store) ReplacedMethods() []string {
	return append([]string(nil), s.replaced...)
}

// Close releases the external backend.
func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// Register creates a user with a bcrypt hashed password.
func (s *Store) Register(ctx context.Context, in domain.Registration) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service: failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("service: failed to hash password: %w", err)
	}
	userType := in.UserType
	if !userType.Valid() {
		userType = domain.UserTypeNew
	}

	now := s.now()
	user, err := s.CreateUser(ctx, &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         in.Name,
		UserType:     userType,
		Preferences:  domain.Preferences{Notifications: true},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate verifies the password and records the login.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("service: failed to look up user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last login", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &now
	}
	return user, nil
}
