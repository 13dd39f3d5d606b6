package repository

import (
	"errors"
	"fmt"

	"github.com/example/shophub/pkg/apperr"
	"github.com/example/shophub/pkg/config"
	"github.com/example/shophub/pkg/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewMySQL opens the relational store and migrates the account schema.
func NewMySQL(cfg *config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.BankAccount{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return db, nil
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// DB exposes the handle so services can open transactions spanning both
// account repositories.
func (r *UserRepository) DB() *gorm.DB { return r.db }

func (r *UserRepository) GetByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(db *gorm.DB, user *models.User) error {
	return db.Create(user).Error
}

func (r *UserRepository) Update(db *gorm.DB, id string, fields map[string]interface{}) error {
	return db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *UserRepository) Delete(db *gorm.DB, id string) error {
	return db.Delete(&models.User{}, "id = ?", id).Error
}

type BankAccountRepository struct {
	db *gorm.DB
}

func NewBankAccountRepository(db *gorm.DB) *BankAccountRepository {
	return &BankAccountRepository{db: db}
}

func (r *BankAccountRepository) DB() *gorm.DB { return r.db }

func (r *BankAccountRepository) GetByID(db *gorm.DB, id string) (*models.BankAccount, error) {
	var account models.BankAccount
	if err := db.Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "bank account not found")
		}
		return nil, err
	}
	return &account, nil
}

func (r *BankAccountRepository) Create(db *gorm.DB, account *models.BankAccount) error {
	return db.Create(account).Error
}

func (r *BankAccountRepository) Delete(db *gorm.DB, id string) error {
	return db.Delete(&models.BankAccount{}, "id = ?", id).Error
}

// AdjustBalance applies a signed delta to one account inside db, failing on
// overdraft. The overdraft check rides in the UPDATE itself so two concurrent
// adjustments of the same account can not lose each other's write. Run it
// inside a transaction when the adjustment is one leg of a transfer.
func (r *BankAccountRepository) AdjustBalance(db *gorm.DB, id string, delta float64) error {
	res := db.Model(&models.BankAccount{}).
		Where("id = ? AND balance + ? >= 0", id, delta).
		Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Missing account or overdraft; re-read to tell them apart.
		account, err := r.GetByID(db, id)
		if err != nil {
			return err
		}
		return apperr.New(apperr.KindInsufficientFunds,
			"not enough funds on account, only %.2f available", account.Balance)
	}
	return nil
}
