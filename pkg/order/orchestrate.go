package order

import (
	"context"

	"github.com/example/shophub/pkg/apperr"
	"github.com/example/shophub/pkg/models"
	"go.uber.org/zap"
)

// Buy purchases the caller's order: flips the purchased flag, decrements
// stock for every line item and pays each seller, all or nothing.
func (s *Service) Buy(ctx context.Context, callerID, orderID string) error {
	return s.execute(ctx, callerID, orderID, models.Buy)
}

// Return reverses a purchase made less than thirty minutes ago: stock goes
// back, sellers refund the buyer, and the order becomes open again.
func (s *Service) Return(ctx context.Context, callerID, orderID string) error {
	return s.execute(ctx, callerID, orderID, models.Return)
}

// execute runs the order transaction. Ordering is fixed: mutate order state,
// resolve stock, call the ledger, then commit. The ledger call is last on
// purpose - it is the one side effect the storage transaction can not roll
// back, so its success gates the commit and a ledger failure never leaves a
// committed, unpaid order. A crash between ledger success and commit still
// leaves the two systems inconsistent; there is no reconciliation for that
// window.
func (s *Service) execute(ctx context.Context, callerID, orderID string, direction models.Direction) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != callerID {
		return apperr.New(apperr.KindNotOwner, "this is not your order")
	}

	buyerAccountID, err := s.accounts.GetBankAccountID(ctx, callerID)
	if err != nil {
		return err
	}
	if buyerAccountID == "" {
		return apperr.New(apperr.KindValidation, "you must first add a bank account")
	}

	switch direction {
	case models.Buy:
		if order.Purchased {
			return apperr.New(apperr.KindValidation, "this order is already purchased")
		}
	case models.Return:
		if !order.Purchased || s.now().Sub(order.PurchasedAt) > returnWindow {
			return apperr.New(apperr.KindReturnWindowExpired,
				"this order can not be returned, it is being shipped")
		}
	}

	err = s.sessions.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.orders.SetPurchased(txCtx, orderID, direction == models.Buy, s.now()); err != nil {
			return err
		}

		instructions, err := s.catalog.ResolveStock(txCtx, direction, order.Items)
		if err != nil {
			return err
		}

		batch, err := s.buildBatch(ctx, direction, buyerAccountID, instructions)
		if err != nil {
			return err
		}

		return s.ledger.Transfer(ctx, batch)
	})
	if err != nil {
		s.logger.Warn("order transaction aborted",
			zap.String("order_id", orderID),
			zap.String("direction", direction.String()),
			zap.Error(err))
		if apperr.KindOf(err) == apperr.KindUnknown {
			return apperr.Wrap(apperr.KindTransactionAborted, err, "failed to "+direction.String()+" the order")
		}
		return err
	}

	return nil
}

// buildBatch resolves each seller's account and orients the money flow:
// buyer pays sellers on a buy, sellers refund the buyer on a return. One
// entry per line item - a seller with two items gets two entries.
func (s *Service) buildBatch(ctx context.Context, direction models.Direction, buyerAccountID string, instructions []models.TransferInstruction) ([]Transfer, error) {
	batch := make([]Transfer, 0, len(instructions))
	for _, ins := range instructions {
		sellerAccountID, err := s.accounts.GetBankAccountID(ctx, ins.SellerID)
		if err != nil {
			return nil, err
		}

		t := Transfer{Amount: ins.Amount}
		if direction == models.Buy {
			t.SenderAccountID = buyerAccountID
			t.ReceiverAccountID = sellerAccountID
		} else {
			t.SenderAccountID = sellerAccountID
			t.ReceiverAccountID = buyerAccountID
		}
		batch = append(batch, t)
	}
	return batch, nil
}
