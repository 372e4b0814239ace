package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger-service/internal/domain"
	"ledger-service/internal/usecase"
	"ledger-service/pkg/xerrors"
)

// DemoSeeder provisions a small set of demo users and funded accounts for
// local development. Seeding goes through the usecases so every seeded row
// has the same validation and records as a live request.
type DemoSeeder struct {
	userUC    *usecase.UserUsecase
	accountUC *usecase.AccountUsecase
	logger    *zap.Logger
}

func NewDemoSeeder(userUC *usecase.UserUsecase, accountUC *usecase.AccountUsecase, logger *zap.Logger) *DemoSeeder {
	return &DemoSeeder{
		userUC:    userUC,
		accountUC: accountUC,
		logger:    logger,
	}
}

var demoUsers = []struct {
	username string
	email    string
	phone    string
	currency string
	deposit  string
}{
	{"alice", "alice@example.com", "+254700000001", "USD", "150.00"},
	{"bob", "bob@example.com", "+254700000002", "USD", "0"},
}

// Seed registers the demo users and applies their initial deposits. Already
// registered users are skipped, so running seed twice is safe.
func (s *DemoSeeder) Seed(ctx context.Context) error {
	s.logger.Info("seeding demo data")

	for _, du := range demoUsers {
		user, err := s.userUC.Register(ctx, &domain.UserCreate{
			Username: du.username,
			Email:    du.email,
			Phone:    du.phone,
		}, du.currency)
		if errors.Is(err, xerrors.ErrAlreadyExists) {
			s.logger.Info("demo user already seeded", zap.String("username", du.username))
			continue
		}
		if err != nil {
			return fmt.Errorf("seed user %s: %w", du.username, err)
		}

		if du.deposit != "0" {
			amount, err := decimal.NewFromString(du.deposit)
			if err != nil {
				return fmt.Errorf("seed user %s: %w", du.username, err)
			}
			if _, err := s.accountUC.Deposit(ctx, user.Accounts[0].ID, amount); err != nil {
				return fmt.Errorf("seed deposit for %s: %w", du.username, err)
			}
		}
		s.logger.Info("demo user seeded",
			zap.String("username", du.username),
			zap.Int64("user_id", user.ID),
			zap.String("deposit", du.deposit))
	}

	s.logger.Info("demo seeding completed")
	return nil
}
