// Package jobs runs the catalog service's scheduled work.
package jobs

import (
	"context"
	"time"

	"github.com/example/shophub/pkg/models"
	"github.com/example/shophub/pkg/queue"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type purchasedOrders interface {
	ListPurchasedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error)
}

type eventPublisher interface {
	PublishMostSpentUser(ctx context.Context, event queue.MostSpentUser) error
}

// TopSpender finds the user who spent the most over the previous day and
// publishes them to the reward queue. The mailer service pays the reward.
type TopSpender struct {
	orders   purchasedOrders
	events   eventPublisher
	schedule string
	logger   *zap.Logger
	cron     *cron.Cron
	now      func() time.Time
}

func NewTopSpender(orders purchasedOrders, events eventPublisher, schedule string, logger *zap.Logger) *TopSpender {
	return &TopSpender{
		orders:   orders,
		events:   events,
		schedule: schedule,
		logger:   logger,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start registers the cron entry and starts the scheduler.
func (j *TopSpender) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := j.Run(ctx); err != nil {
			j.logger.Error("Top spender job failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Top spender job scheduled", zap.String("schedule", j.schedule))
	return nil
}

func (j *TopSpender) Stop() {
	j.cron.Stop()
}

// Run aggregates yesterday's purchases by buyer and publishes the biggest
// spender. Day boundaries are UTC regardless of the server clock's zone.
// A day with no purchases publishes nothing.
func (j *TopSpender) Run(ctx context.Context) error {
	to := j.now().UTC().Truncate(24 * time.Hour)
	from := to.Add(-24 * time.Hour)

	orders, err := j.orders.ListPurchasedBetween(ctx, from, to)
	if err != nil {
		return err
	}

	spent := make(map[string]float64)
	for _, order := range orders {
		spent[order.UserID] += order.Price
	}

	top := queue.MostSpentUser{}
	for userID, amount := range spent {
		if amount > top.Amount {
			top = queue.MostSpentUser{UserID: userID, Amount: amount}
		}
	}
	if top.UserID == "" {
		j.logger.Info("No purchases yesterday, skipping top spender event")
		return nil
	}

	return j.events.PublishMostSpentUser(ctx, top)
}
