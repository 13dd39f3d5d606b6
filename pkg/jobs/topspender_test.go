package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/example/shophub/pkg/models"
	"github.com/example/shophub/pkg/queue"
	"go.uber.org/zap"
)

type fakeOrders struct {
	orders []models.Order
	from   time.Time
	to     time.Time
}

func (f *fakeOrders) ListPurchasedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	f.from, f.to = from, to
	return f.orders, nil
}

type fakePublisher struct {
	events []queue.MostSpentUser
}

func (f *fakePublisher) PublishMostSpentUser(ctx context.Context, event queue.MostSpentUser) error {
	f.events = append(f.events, event)
	return nil
}

func TestRunPublishesBiggestSpender(t *testing.T) {
	orders := &fakeOrders{orders: []models.Order{
		{UserID: "u1", Price: 30},
		{UserID: "u2", Price: 25},
		{UserID: "u1", Price: 10},
		{UserID: "u3", Price: 39.99},
	}}
	published := &fakePublisher{}
	job := NewTopSpender(orders, published, "0 6 * * *", zap.NewNop())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(published.events) != 1 {
		t.Fatalf("expected one event, got %d", len(published.events))
	}
	got := published.events[0]
	if got.UserID != "u1" || got.Amount != 40 {
		t.Errorf("unexpected winner: %+v", got)
	}
}

func TestRunCoversThePreviousDay(t *testing.T) {
	orders := &fakeOrders{}
	job := NewTopSpender(orders, &fakePublisher{}, "0 6 * * *", zap.NewNop())
	fixed := time.Date(2024, 5, 12, 6, 0, 3, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantTo := time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)
	if !orders.to.Equal(wantTo) || !orders.from.Equal(wantTo.Add(-24*time.Hour)) {
		t.Errorf("queried window [%v, %v), want the previous day", orders.from, orders.to)
	}
}

func TestRunDayBoundaryIsUTC(t *testing.T) {
	orders := &fakeOrders{}
	job := NewTopSpender(orders, &fakePublisher{}, "0 6 * * *", zap.NewNop())
	// 02:00 on May 12 in UTC+10 is still May 11 in UTC.
	fixed := time.Date(2024, 5, 12, 2, 0, 0, 0, time.FixedZone("UTC+10", 10*60*60))
	job.now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantTo := time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)
	if !orders.to.Equal(wantTo) || !orders.from.Equal(wantTo.Add(-24*time.Hour)) {
		t.Errorf("queried window [%v, %v), want UTC May 10 through May 11", orders.from, orders.to)
	}
}

func TestRunSkipsQuietDays(t *testing.T) {
	published := &fakePublisher{}
	job := NewTopSpender(&fakeOrders{}, published, "0 6 * * *", zap.NewNop())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(published.events) != 0 {
		t.Errorf("expected no events, got %+v", published.events)
	}
}
