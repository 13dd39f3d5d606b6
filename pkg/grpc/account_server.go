package grpc

import (
	"context"
	"fmt"
	"net"

	"github.com/example/shophub/pkg/account"
	"github.com/example/shophub/pkg/apperr"
	"github.com/example/shophub/pkg/config"
	pb "github.com/example/shophub/pkg/proto/accountpb"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// AccountServer exposes user lookup and the ledger to the other services.
type AccountServer struct {
	pb.UnimplementedUserServiceServer
	pb.UnimplementedLedgerServiceServer
	users  *account.UserService
	bank   *account.BankService
	logger *zap.Logger
	config *config.Config
}

func NewAccountServer(cfg *config.Config, logger *zap.Logger, users *account.UserService, bank *account.BankService) *AccountServer {
	return &AccountServer{
		users:  users,
		bank:   bank,
		logger: logger,
		config: cfg,
	}
}

func (s *AccountServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	srv := grpc.NewServer()
	pb.RegisterUserServiceServer(srv, s)
	pb.RegisterLedgerServiceServer(srv, s)
	reflection.Register(srv)

	s.logger.Info("Account service started", zap.String("address", addr))

	return srv.Serve(lis)
}

func (s *AccountServer) GetUserInfo(ctx context.Context, req *pb.UserIdRequest) (*pb.UserInfoResponse, error) {
	user, err := s.users.GetByID(ctx, req.GetUserId())
	if err != nil {
		return nil, statusFromErr(err)
	}

	resp := &pb.UserInfoResponse{
		Name:    user.Name,
		Surname: user.Surname,
		Email:   user.Email,
	}
	if user.BankAccountID != nil {
		resp.BankAccountId = *user.BankAccountID
	}
	return resp, nil
}

func (s *AccountServer) GetBankAccountId(ctx context.Context, req *pb.UserIdRequest) (*pb.BankAccountIdResponse, error) {
	accountID, err := s.users.GetBankAccountID(ctx, req.GetUserId())
	if err != nil {
		return nil, statusFromErr(err)
	}
	return &pb.BankAccountIdResponse{BankAccountId: accountID}, nil
}

func (s *AccountServer) Transfer(ctx context.Context, req *pb.TransferBatch) (*pb.TransferResponse, error) {
	batch := make([]account.TransferEntry, 0, len(req.GetTransfers()))
	for _, t := range req.GetTransfers() {
		batch = append(batch, account.TransferEntry{
			SenderAccountID:   t.GetSenderAccountId(),
			ReceiverAccountID: t.GetReceiverAccountId(),
			Amount:            t.GetAmount(),
		})
	}

	if err := s.bank.Transfer(ctx, batch); err != nil {
		s.logger.Warn("ledger transfer rejected", zap.Int("entries", len(batch)), zap.Error(err))
		return nil, statusFromErr(err)
	}
	return &pb.TransferResponse{}, nil
}

func statusFromErr(err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return status.Error(codes.InvalidArgument, err.Error())
	case apperr.KindUnauthorized:
		return status.Error(codes.Unauthenticated, err.Error())
	case apperr.KindNotOwner:
		return status.Error(codes.PermissionDenied, err.Error())
	case apperr.KindNotFound, apperr.KindOrderNotFound, apperr.KindProductNotFound:
		return status.Error(codes.NotFound, err.Error())
	case apperr.KindInsufficientFunds, apperr.KindInsufficientStock:
		return status.Error(codes.FailedPrecondition, err.Error())
	case apperr.KindTransactionAborted:
		return status.Error(codes.Aborted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
