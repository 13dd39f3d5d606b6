// Package mailer consumes the top-spender queue, pays out the daily reward
// and notifies the winner by email.
package mailer

import (
	"context"
	"fmt"
	"math"

	"github.com/example/shophub/pkg/config"
	"github.com/example/shophub/pkg/order"
	pb "github.com/example/shophub/pkg/proto/accountpb"
	"github.com/example/shophub/pkg/queue"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// accountClient is the slice of the account service the mailer needs: who the
// winner is and a ledger call to pay them.
type accountClient interface {
	UserInfo(ctx context.Context, userID string) (*pb.UserInfoResponse, error)
	Transfer(ctx context.Context, batch []order.Transfer) error
}

type emailSender interface {
	SendRewardEmail(to, name string, spent, reward float64) error
}

// Rewarder handles one top-spender event end to end.
type Rewarder struct {
	accounts accountClient
	email    emailSender
	reward   *config.RewardConfig
	logger   *zap.Logger
}

func NewRewarder(accounts accountClient, email emailSender, reward *config.RewardConfig, logger *zap.Logger) *Rewarder {
	return &Rewarder{
		accounts: accounts,
		email:    email,
		reward:   reward,
		logger:   logger,
	}
}

// Handle pays the winner their reward from the platform account and sends the
// congratulation email. The reward is a fraction of what they spent, rounded
// to cents.
func (r *Rewarder) Handle(ctx context.Context, event queue.MostSpentUser) error {
	info, err := r.accounts.UserInfo(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve winner: %w", err)
	}

	reward := math.Round(event.Amount*r.reward.Rate*100) / 100

	if info.GetBankAccountId() == "" {
		r.logger.Warn("Winner has no bank account, skipping payout",
			zap.String("user_id", event.UserID))
	} else if reward > 0 {
		err := r.accounts.Transfer(ctx, []order.Transfer{{
			SenderAccountID:   r.reward.PlatformAccountID,
			ReceiverAccountID: info.GetBankAccountId(),
			Amount:            reward,
		}})
		if err != nil {
			return fmt.Errorf("failed to pay reward: %w", err)
		}
	}

	if err := r.email.SendRewardEmail(info.GetEmail(), info.GetName(), event.Amount, reward); err != nil {
		return fmt.Errorf("failed to send reward email: %w", err)
	}

	r.logger.Info("Rewarded top spender",
		zap.String("user_id", event.UserID),
		zap.Float64("spent", event.Amount),
		zap.Float64("reward", reward))
	return nil
}

// Sender sends mail over SMTP.
type Sender struct {
	config *config.SMTPConfig
	dialer *gomail.Dialer
}

func NewSender(cfg *config.SMTPConfig) *Sender {
	return &Sender{
		config: cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *Sender) SendRewardEmail(to, name string, spent, reward float64) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "You were yesterday's top spender!")
	m.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nyou spent %.2f with us yesterday, more than anyone else. "+
			"As a thank you we have credited %.2f to your bank account.\n\nYour shop team",
		name, spent, reward))

	return s.dialer.DialAndSend(m)
}
