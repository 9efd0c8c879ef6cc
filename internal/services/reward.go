package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/roadwatch-backend/internal/data/repos"
	"github.com/yungbote/roadwatch-backend/internal/platform/dbctx"
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

// Reward tiers, in hundredths of a coin. The counter value after the
// increment is compared, so validations 1 through 10 earn the low tier and
// the 11th onward the high tier.
const (
	LowTierCents  int64 = 10
	HighTierCents int64 = 15
	LowTierLimit        = 10
)

func CoinIncrement(validated int) int64 {
	if validated <= LowTierLimit {
		return LowTierCents
	}
	return HighTierCents
}

type RewardOutcome struct {
	UserID    int64
	Validated int
	CoinCents int64
	Credited  bool
}

type RewardService interface {
	Reward(ctx context.Context, userID int64) (RewardOutcome, error)
}

type rewardService struct {
	log     *logger.Logger
	users   repos.UserRepo
	metrics *serviceMetrics
}

func NewRewardService(log *logger.Logger, users repos.UserRepo) RewardService {
	log = log.With("service", "RewardService")
	return &rewardService{log: log, users: users, metrics: newServiceMetrics(log)}
}

// Reward bumps the author's validated counter, then credits coins. The two
// writes are independent: if crediting fails the counter stays bumped and
// the outcome reports Credited=false alongside the error.
func (s *rewardService) Reward(ctx context.Context, userID int64) (out RewardOutcome, err error) {
	ctx, span := startSpan(ctx, "RewardService.Reward", attribute.Int64("user.id", userID))
	defer func() { finishSpan(span, err) }()

	dbc := dbctx.Context{Ctx: ctx}
	out.UserID = userID

	n, err := s.users.IncrementValidated(dbc, userID)
	if err != nil {
		return out, fmt.Errorf("increment validated: %w", err)
	}
	out.Validated = n

	inc := CoinIncrement(n)
	if err := s.users.AddCoins(dbc, userID, inc); err != nil {
		s.log.Error("coins not credited after counter increment", "user", userID, "validated", n, "cents", inc, "error", err)
		return out, fmt.Errorf("credit coins: %w", err)
	}
	out.CoinCents = inc
	out.Credited = true
	s.metrics.credited(ctx, inc)
	s.log.Debug("reward granted", "user", userID, "validated", n, "cents", inc)
	return out, nil
}
