// Package account owns users and bank accounts over the relational store,
// including the ledger transfer consumed by the catalog's order transactions.
package account

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"strings"

	"github.com/example/shophub/pkg/apperr"
	"github.com/example/shophub/pkg/models"
	"github.com/example/shophub/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type userRepo interface {
	GetByID(db *gorm.DB, id string) (*models.User, error)
	GetByEmail(db *gorm.DB, email string) (*models.User, error)
	Create(db *gorm.DB, user *models.User) error
	Update(db *gorm.DB, id string, fields map[string]interface{}) error
	Delete(db *gorm.DB, id string) error
}

type userCache interface {
	CacheUser(ctx context.Context, user *repository.UserCache) error
	GetUserCache(ctx context.Context, userID string) (*repository.UserCache, error)
	InvalidateUser(ctx context.Context, userID string) error
}

// dbRunner matches *gorm.DB so tests can stub transactions.
type dbRunner interface {
	Transaction(fn func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
	WithContext(ctx context.Context) *gorm.DB
}

type UserService struct {
	db     dbRunner
	users  userRepo
	cache  userCache
	tokens *TokenIssuer
	logger *zap.Logger
}

func NewUserService(db dbRunner, users userRepo, cache userCache, tokens *TokenIssuer, logger *zap.Logger) *UserService {
	return &UserService{db: db, users: users, cache: cache, tokens: tokens, logger: logger}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Address  string `json:"address"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *RegisterInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Surname) == "" {
		return apperr.New(apperr.KindValidation, "name and surname are required")
	}
	if !strings.Contains(in.Email, "@") {
		return apperr.New(apperr.KindValidation, "email is not valid")
	}
	if len(in.Password) < 8 {
		return apperr.New(apperr.KindValidation, "password must be at least 8 characters")
	}
	return nil
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, key, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Surname:      strings.TrimSpace(in.Surname),
		Address:      strings.TrimSpace(in.Address),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Key:          key,
		Role:         models.RoleUser,
	}

	if err := s.users.Create(s.db.WithContext(ctx), user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the password and issues a bearer token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(s.db.WithContext(ctx), strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", apperr.New(apperr.KindUnauthorized, "wrong email or password")
	}

	if !verifyPassword(password, user.PasswordHash, user.Key) {
		return "", apperr.New(apperr.KindUnauthorized, "wrong email or password")
	}

	bankAccountID := ""
	if user.BankAccountID != nil {
		bankAccountID = *user.BankAccountID
	}
	return s.tokens.Issue(user.ID, user.Role, user.Email, bankAccountID)
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(s.db.WithContext(ctx), id)
}

// Info returns the cached public slice of a user, falling back to the store.
func (s *UserService) Info(ctx context.Context, id string) (*repository.UserCache, error) {
	if cached, err := s.cache.GetUserCache(ctx, id); err == nil {
		return cached, nil
	}

	user, err := s.users.GetByID(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}

	info := &repository.UserCache{
		ID:      user.ID,
		Name:    user.Name,
		Surname: user.Surname,
		Email:   user.Email,
	}
	if err := s.cache.CacheUser(ctx, info); err != nil {
		s.logger.Warn("user cache write failed", zap.String("user_id", id), zap.Error(err))
	}
	return info, nil
}

type ProfileUpdate struct {
	Name    *string `json:"name"`
	Surname *string `json:"surname"`
	Address *string `json:"address"`
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) error {
	fields := map[string]interface{}{}
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Surname != nil && strings.TrimSpace(*in.Surname) != "" {
		fields["surname"] = strings.TrimSpace(*in.Surname)
	}
	if in.Address != nil {
		fields["address"] = strings.TrimSpace(*in.Address)
	}
	if len(fields) == 0 {
		return apperr.New(apperr.KindValidation, "nothing to update")
	}

	if err := s.users.Update(s.db.WithContext(ctx), id, fields); err != nil {
		return err
	}
	return s.invalidate(ctx, id)
}

func (s *UserService) ChangePassword(ctx context.Context, id, newPassword string) error {
	if len(newPassword) < 8 {
		return apperr.New(apperr.KindValidation, "password must be at least 8 characters")
	}

	hash, key, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.users.Update(s.db.WithContext(ctx), id, map[string]interface{}{
		"password_hash": hash,
		"key":           key,
	})
}

func (s *UserService) SetRole(ctx context.Context, id, role string) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return apperr.New(apperr.KindValidation, "role %q is not available", role)
	}
	if err := s.users.Update(s.db.WithContext(ctx), id, map[string]interface{}{"role": role}); err != nil {
		return err
	}
	return s.invalidate(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(s.db.WithContext(ctx), id); err != nil {
		return err
	}
	return s.invalidate(ctx, id)
}

// GetBankAccountID resolves the payable account of a user; empty when the
// user has not added one yet.
func (s *UserService) GetBankAccountID(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(s.db.WithContext(ctx), userID)
	if err != nil {
		return "", err
	}
	if user.BankAccountID == nil {
		return "", nil
	}
	return *user.BankAccountID, nil
}

func (s *UserService) invalidate(ctx context.Context, id string) error {
	if err := s.cache.InvalidateUser(ctx, id); err != nil {
		s.logger.Warn("user cache invalidation failed", zap.String("user_id", id), zap.Error(err))
	}
	return nil
}

// Password hashing keeps the HMAC-SHA256 scheme with a random per-user key.
func hashPassword(password string) (hash, key []byte, err error) {
	key = make([]byte, 32)
	if _, err = rand.Read(key); err != nil {
		return nil, nil, err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(password))
	return mac.Sum(nil), key, nil
}

func verifyPassword(password string, hash, key []byte) bool {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(password))
	return hmac.Equal(mac.Sum(nil), hash)
}
