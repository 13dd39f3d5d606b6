package account

import (
	"context"
	"testing"

	"github.com/example/shophub/pkg/apperr"
	"github.com/example/shophub/pkg/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeBank struct {
	balances map[string]float64
	created  *models.BankAccount
}

func newFakeBank(balances map[string]float64) *fakeBank {
	if balances == nil {
		balances = map[string]float64{}
	}
	return &fakeBank{balances: balances}
}

func (f *fakeBank) GetByID(db *gorm.DB, id string) (*models.BankAccount, error) {
	balance, ok := f.balances[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "bank account not found")
	}
	return &models.BankAccount{ID: id, Balance: balance}, nil
}

func (f *fakeBank) Create(db *gorm.DB, account *models.BankAccount) error {
	f.created = account
	f.balances[account.ID] = account.Balance
	return nil
}

func (f *fakeBank) Delete(db *gorm.DB, id string) error {
	delete(f.balances, id)
	return nil
}

func (f *fakeBank) AdjustBalance(db *gorm.DB, id string, delta float64) error {
	balance, ok := f.balances[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "bank account not found")
	}
	if balance+delta < 0 {
		return apperr.New(apperr.KindInsufficientFunds,
			"not enough funds on account, only %.2f available", balance)
	}
	f.balances[id] = balance + delta
	return nil
}

func newBankService(bank *fakeBank, users *fakeUsers) *BankService {
	return NewBankService(fakeDB{}, bank, users, zap.NewNop())
}

func TestOpenLinksAccountToUser(t *testing.T) {
	users := newFakeUsers(&models.User{ID: "u1"})
	bank := newFakeBank(nil)
	svc := newBankService(bank, users)

	opened, err := svc.Open(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opened.ID == "" {
		t.Fatal("account has no id")
	}
	if users.updated["u1"]["bank_account_id"] != opened.ID {
		t.Errorf("user was not linked to the account: %+v", users.updated["u1"])
	}
}

func TestOpenSecondAccountFails(t *testing.T) {
	existing := "acc-1"
	users := newFakeUsers(&models.User{ID: "u1", BankAccountID: &existing})
	svc := newBankService(newFakeBank(nil), users)

	_, err := svc.Open(context.Background(), "u1")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDepositAndWithdraw(t *testing.T) {
	bank := newFakeBank(map[string]float64{"acc": 10})
	svc := newBankService(bank, newFakeUsers())

	if err := svc.Deposit(context.Background(), "acc", 5); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if err := svc.Withdraw(context.Background(), "acc", 12); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if bank.balances["acc"] != 3 {
		t.Errorf("expected balance 3, got %v", bank.balances["acc"])
	}

	if err := svc.Deposit(context.Background(), "acc", 0); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for zero deposit, got %v", err)
	}
	if err := svc.Withdraw(context.Background(), "acc", -1); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for negative withdraw, got %v", err)
	}
}

func TestWithdrawOverdraft(t *testing.T) {
	bank := newFakeBank(map[string]float64{"acc": 10})
	svc := newBankService(bank, newFakeUsers())

	err := svc.Withdraw(context.Background(), "acc", 11)
	if !apperr.Is(err, apperr.KindInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if bank.balances["acc"] != 10 {
		t.Errorf("balance changed on a failed withdraw: %v", bank.balances["acc"])
	}
}

func TestTransferMovesBothLegs(t *testing.T) {
	bank := newFakeBank(map[string]float64{"a": 100, "b": 0})
	svc := newBankService(bank, newFakeUsers())

	err := svc.Transfer(context.Background(), []TransferEntry{
		{SenderAccountID: "a", ReceiverAccountID: "b", Amount: 30},
		{SenderAccountID: "a", ReceiverAccountID: "b", Amount: 20},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bank.balances["a"] != 50 || bank.balances["b"] != 50 {
		t.Errorf("unexpected balances: %+v", bank.balances)
	}
}

func TestTransferValidation(t *testing.T) {
	svc := newBankService(newFakeBank(nil), newFakeUsers())

	cases := [][]TransferEntry{
		nil,
		{{SenderAccountID: "a", ReceiverAccountID: "b", Amount: 0}},
		{{SenderAccountID: "", ReceiverAccountID: "b", Amount: 5}},
		{{SenderAccountID: "a", ReceiverAccountID: "", Amount: 5}},
	}
	for _, batch := range cases {
		if err := svc.Transfer(context.Background(), batch); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("batch %+v: expected validation error, got %v", batch, err)
		}
	}
}

func TestTransferOverdraftKeepsKind(t *testing.T) {
	bank := newFakeBank(map[string]float64{"a": 10, "b": 0})
	svc := newBankService(bank, newFakeUsers())

	err := svc.Transfer(context.Background(), []TransferEntry{
		{SenderAccountID: "a", ReceiverAccountID: "b", Amount: 25},
	})
	if !apperr.Is(err, apperr.KindInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}
