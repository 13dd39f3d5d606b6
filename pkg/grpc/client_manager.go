package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/example/shophub/pkg/apperr"
	"github.com/example/shophub/pkg/config"
	"github.com/example/shophub/pkg/discovery"
	"github.com/example/shophub/pkg/order"
	pb "github.com/example/shophub/pkg/proto/accountpb"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// ClientManager manages the gRPC client connection from the catalog service
// to the account service. It implements the account lookup and ledger
// dependencies of the order package directly.
type ClientManager struct {
	config   *config.Config
	registry *discovery.Registry
	logger   *zap.Logger

	user   pb.UserServiceClient
	ledger pb.LedgerServiceClient

	conn *grpc.ClientConn
}

func NewClientManager(cfg *config.Config, logger *zap.Logger, registry *discovery.Registry) *ClientManager {
	return &ClientManager{
		config:   cfg,
		registry: registry,
		logger:   logger,
	}
}

// Connect dials the account service, preferring a discovered instance over
// the configured fallback address.
func (m *ClientManager) Connect() error {
	target := m.config.Account.Address

	if m.registry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		addrs, err := m.registry.Resolve(ctx, "account-service")
		if err == nil && len(addrs) > 0 {
			target = addrs[0]
			m.logger.Info("Discovered account service", zap.String("address", target))
		} else {
			m.logger.Info("Using default address for account service", zap.String("address", target))
		}
	}

	m.logger.Info("Connecting to account service", zap.String("target", target))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(ctx, target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to account service: %w", err)
	}

	m.conn = conn
	m.user = pb.NewUserServiceClient(conn)
	m.ledger = pb.NewLedgerServiceClient(conn)

	m.logger.Info("Successfully connected to account service")
	return nil
}

// GetBankAccountID resolves the bank account of a user; empty means the user
// has not opened one.
func (m *ClientManager) GetBankAccountID(ctx context.Context, userID string) (string, error) {
	resp, err := m.user.GetBankAccountId(ctx, &pb.UserIdRequest{UserId: userID})
	if err != nil {
		return "", appErrFromStatus(err)
	}
	return resp.GetBankAccountId(), nil
}

// UserInfo fetches the public profile of a user from the account service.
func (m *ClientManager) UserInfo(ctx context.Context, userID string) (*pb.UserInfoResponse, error) {
	resp, err := m.user.GetUserInfo(ctx, &pb.UserIdRequest{UserId: userID})
	if err != nil {
		return nil, appErrFromStatus(err)
	}
	return resp, nil
}

// Transfer forwards a transfer batch to the ledger.
func (m *ClientManager) Transfer(ctx context.Context, batch []order.Transfer) error {
	req := &pb.TransferBatch{Transfers: make([]*pb.TransferRequest, 0, len(batch))}
	for _, t := range batch {
		req.Transfers = append(req.Transfers, &pb.TransferRequest{
			SenderAccountId:   t.SenderAccountID,
			ReceiverAccountId: t.ReceiverAccountID,
			Amount:            t.Amount,
		})
	}

	if _, err := m.ledger.Transfer(ctx, req); err != nil {
		return appErrFromStatus(err)
	}
	return nil
}

// appErrFromStatus maps a gRPC status back onto the error kinds the rest of
// the service understands. The message already carries the human-readable
// reason, the kind only has to be close enough for the HTTP layer.
func appErrFromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.InvalidArgument:
		return apperr.New(apperr.KindValidation, "%s", st.Message())
	case codes.Unauthenticated:
		return apperr.New(apperr.KindUnauthorized, "%s", st.Message())
	case codes.PermissionDenied:
		return apperr.New(apperr.KindNotOwner, "%s", st.Message())
	case codes.NotFound:
		return apperr.New(apperr.KindNotFound, "%s", st.Message())
	case codes.FailedPrecondition:
		return apperr.New(apperr.KindInsufficientFunds, "%s", st.Message())
	case codes.Aborted:
		return apperr.New(apperr.KindTransactionAborted, "%s", st.Message())
	default:
		return err
	}
}

func (m *ClientManager) Close() error {
	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			return fmt.Errorf("account connection close error: %w", err)
		}
	}
	return nil
}
