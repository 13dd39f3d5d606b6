package account

import (
	"context"

	"github.com/example/shophub/pkg/apperr"
	"github.com/example/shophub/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type bankRepo interface {
	GetByID(db *gorm.DB, id string) (*models.BankAccount, error)
	Create(db *gorm.DB, account *models.BankAccount) error
	Delete(db *gorm.DB, id string) error
	AdjustBalance(db *gorm.DB, id string, delta float64) error
}

// BankService is the Ledger: it owns balances and applies transfer batches
// atomically.
type BankService struct {
	db       dbRunner
	accounts bankRepo
	users    userRepo
	logger   *zap.Logger
}

func NewBankService(db dbRunner, accounts bankRepo, users userRepo, logger *zap.Logger) *BankService {
	return &BankService{db: db, accounts: accounts, users: users, logger: logger}
}

// Open creates the caller's bank account and links it to the user row in one
// transaction; a user holds at most one account.
func (s *BankService) Open(ctx context.Context, userID string) (*models.BankAccount, error) {
	account := &models.BankAccount{ID: uuid.NewString()}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		user, err := s.users.GetByID(tx, userID)
		if err != nil {
			return err
		}
		if user.BankAccountID != nil {
			return apperr.New(apperr.KindValidation, "you already have a bank account")
		}
		if err := s.accounts.Create(tx, account); err != nil {
			return err
		}
		return s.users.Update(tx, userID, map[string]interface{}{"bank_account_id": account.ID})
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *BankService) Get(ctx context.Context, accountID string) (*models.BankAccount, error) {
	return s.accounts.GetByID(s.db.WithContext(ctx), accountID)
}

func (s *BankService) Deposit(ctx context.Context, accountID string, amount float64) error {
	if amount <= 0 {
		return apperr.New(apperr.KindValidation, "deposit amount must be positive")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.accounts.AdjustBalance(tx, accountID, amount)
	})
}

func (s *BankService) Withdraw(ctx context.Context, accountID string, amount float64) error {
	if amount <= 0 {
		return apperr.New(apperr.KindValidation, "withdraw amount must be positive")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.accounts.AdjustBalance(tx, accountID, -amount)
	})
}

// TransferEntry is one money movement of a batch.
type TransferEntry struct {
	SenderAccountID   string
	ReceiverAccountID string
	Amount            float64
}

// Transfer applies the whole batch inside one database transaction: any
// overdraft or missing account rolls back every entry.
func (s *BankService) Transfer(ctx context.Context, batch []TransferEntry) error {
	if len(batch) == 0 {
		return apperr.New(apperr.KindValidation, "transfer batch is empty")
	}
	for _, entry := range batch {
		if entry.Amount <= 0 {
			return apperr.New(apperr.KindValidation, "transfer amount must be positive")
		}
		if entry.SenderAccountID == "" || entry.ReceiverAccountID == "" {
			return apperr.New(apperr.KindValidation, "transfer needs sender and receiver accounts")
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range batch {
			if err := s.accounts.AdjustBalance(tx, entry.SenderAccountID, -entry.Amount); err != nil {
				return err
			}
			if err := s.accounts.AdjustBalance(tx, entry.ReceiverAccountID, entry.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("transfer batch rolled back", zap.Int("entries", len(batch)), zap.Error(err))
		if apperr.KindOf(err) == apperr.KindUnknown {
			return apperr.Wrap(apperr.KindTransactionAborted, err, "transfer failed")
		}
		return err
	}
	return nil
}

func (s *BankService) Delete(ctx context.Context, accountID string) error {
	return s.accounts.Delete(s.db.WithContext(ctx), accountID)
}
