// Package credit はクレジット残高と決定の解錠を管理する。
package credit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hitoshi/kararman/internal/metrics"
	"github.com/hitoshi/kararman/internal/model"
	"github.com/hitoshi/kararman/internal/repository"
)

// CreditService はクレジット消費・残高照会のサービス。
// 残高の増減はリポジトリ経由でDBのストアドファンクションに委譲する。
type CreditService struct {
	decisionRepo repository.DecisionRepository
	purchaseRepo repository.PurchaseRepository
	collector    metrics.MetricsCollector
	logger       *slog.Logger
}

// NewCreditService はCreditServiceの新しいインスタンスを生成する。
func NewCreditService(
	decisionRepo repository.DecisionRepository,
	purchaseRepo repository.PurchaseRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *CreditService {
	return &CreditService{
		decisionRepo: decisionRepo,
		purchaseRepo: purchaseRepo,
		collector:    collector,
		logger:       logger,
	}
}

// UnlockResult はUnlockの戻り値。
type UnlockResult struct {
	Purchase *model.Purchase
	Balance  int
	// AlreadyUnlocked は解錠済み決定への再解錠要求だった場合にtrue。
	// クレジットは消費されない。
	AlreadyUnlocked bool
}

// Unlock は決定を解錠する。クレジット消費と購入記録は
// DB側で原子的に行われる。解錠済みの場合は消費せずに成功を返す（冪等）。
func (s *CreditService) Unlock(ctx context.Context, userID, decisionID string) (*UnlockResult, error) {
	d, err := s.decisionRepo.FindByID(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		s.collector.RecordUnlockFailure("not_found")
		return nil, model.NewDecisionNotFoundError(decisionID)
	}

	existing, err := s.purchaseRepo.Find(ctx, userID, decisionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		balance, err := s.purchaseRepo.Balance(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &UnlockResult{Purchase: existing, Balance: balance, AlreadyUnlocked: true}, nil
	}

	purchase, err := s.purchaseRepo.Unlock(ctx, userID, decisionID, d.PriceCredits)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			s.collector.RecordUnlockFailure("insufficient_credits")
			return nil, model.NewInsufficientCreditsError()
		}
		return nil, err
	}

	balance, err := s.purchaseRepo.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.collector.RecordUnlockSuccess()
	s.logger.Info("decision unlocked",
		slog.String("user_id", userID),
		slog.String("decision_id", decisionID),
		slog.Int("credits", d.PriceCredits),
		slog.Int("balance", balance),
	)

	return &UnlockResult{Purchase: purchase, Balance: balance}, nil
}

// Balance はユーザーのクレジット残高を返す。
func (s *CreditService) Balance(ctx context.Context, userID string) (int, error) {
	return s.purchaseRepo.Balance(ctx, userID)
}

// Grant はユーザーにクレジットを付与する。決済プラットフォームからの
// Webhook通知で呼び出される想定。
func (s *CreditService) Grant(ctx context.Context, userID string, credits int) error {
	if err := s.purchaseRepo.Grant(ctx, userID, credits); err != nil {
		return err
	}
	s.logger.Info("credits granted",
		slog.String("user_id", userID),
		slog.Int("credits", credits),
	)
	return nil
}
