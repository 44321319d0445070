package decision

import (
	"context"
	"strconv"

	"github.com/hitoshi/kararman/internal/filter"
	"github.com/hitoshi/kararman/internal/metrics"
	"github.com/hitoshi/kararman/internal/model"
	"github.com/hitoshi/kararman/internal/repository"
	"github.com/hitoshi/kararman/internal/security"
)

// RoleAdmin は全決定の全文閲覧を許可するロール。
const RoleAdmin = "admin"

// DecisionService は決定の検索・閲覧のサービス。
// 一覧は分類・優先順ソート・種別バッジ・マスキングを適用して返す。
type DecisionService struct {
	decisionRepo  repository.DecisionRepository
	purchaseRepo  repository.PurchaseRepository
	courtCaseRepo repository.CourtCaseRepository
	sanitizer     security.ContentSanitizerService
	collector     metrics.MetricsCollector
}

// NewDecisionService はDecisionServiceの新しいインスタンスを生成する。
func NewDecisionService(
	decisionRepo repository.DecisionRepository,
	purchaseRepo repository.PurchaseRepository,
	courtCaseRepo repository.CourtCaseRepository,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
) *DecisionService {
	return &DecisionService{
		decisionRepo:  decisionRepo,
		purchaseRepo:  purchaseRepo,
		courtCaseRepo: courtCaseRepo,
		sanitizer:     sanitizer,
		collector:     collector,
	}
}

// DecisionListResult はListDecisionsの戻り値。
type DecisionListResult struct {
	Decisions []DecisionSummary
	Page      int
	HasMore   bool
}

// DecisionSummary は決定一覧のサマリー情報。
// CaseNoとPreviewは未解錠の場合マスク済み。
type DecisionSummary struct {
	ID           string
	CaseNo       string
	Title        string
	Preview      string
	Flags        model.Flags
	Type         *model.TypeInfo
	PriceCredits int
	Unlocked     bool
}

// DecisionDetail はGetDecisionの戻り値。
// 未解錠の場合、FullTextはマスク済みプレビュー。
type DecisionDetail struct {
	ID           string
	CaseNo       string
	Title        string
	Summary      string
	FullText     string
	Outcome      string
	Category     string
	Flags        model.Flags
	Type         *model.TypeInfo
	PriceCredits int
	Unlocked     bool
	CourtCases   []*model.CourtCase
}

// ListDecisions は決定一覧を検索条件・ページ番号付きで返す。
// pageは1始まり。limit+1件を取得してHasMoreを判定する。
// 取得ページ内の決定は裁判紐付き・有利決定を優先する順に並べ替える。
func (s *DecisionService) ListDecisions(
	ctx context.Context,
	userID, role string,
	state filter.State,
	page, pageSize int,
) (*DecisionListResult, error) {
	if page < 1 {
		return nil, model.NewInvalidPageError(strconv.Itoa(page))
	}

	s.collector.RecordSearch(state.SearchTerm != "")

	// limit+1件を取得してHasMoreを判定する
	q := repository.DecisionQuery{
		Search:    state.SearchTerm,
		Category:  state.Category,
		CourtOnly: state.CourtOnly,
		Offset:    (page - 1) * pageSize,
		Limit:     pageSize + 1,
	}
	decisions, err := s.decisionRepo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	hasMore := len(decisions) > pageSize
	if hasMore {
		decisions = decisions[:pageSize] // 余分な1件を除外
	}

	// 優先順ソートはページ単位で適用する
	decisions = Rank(decisions)

	unlocked, err := s.unlockedSet(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	admin := role == RoleAdmin
	summaries := make([]DecisionSummary, len(decisions))
	for i, d := range decisions {
		entitled := unlocked[d.ID]
		summaries[i] = DecisionSummary{
			ID:           d.ID,
			CaseNo:       MaskCaseNo(d.CaseNo, entitled, admin),
			Title:        d.Title,
			Preview:      MaskContent(d.Summary, entitled, admin),
			Flags:        Classify(d),
			Type:         ResolveProcurementType(d.CaseNo),
			PriceCredits: d.PriceCredits,
			Unlocked:     admin || entitled,
		}
	}

	return &DecisionListResult{
		Decisions: summaries,
		Page:      page,
		HasMore:   hasMore,
	}, nil
}

// GetDecision は決定の詳細を返す。
// 解錠済みの場合は全文をサニタイズし、一覧サマリーに含まれる句を本文中で強調する。
// 未解錠の場合は全文の代わりにマスク済みプレビューを返す。
func (s *DecisionService) GetDecision(
	ctx context.Context,
	userID, role, id string,
) (*DecisionDetail, error) {
	d, err := s.decisionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, model.NewDecisionNotFoundError(id)
	}

	admin := role == RoleAdmin
	entitled := false
	if !admin && userID != "" {
		entitled, err = s.purchaseRepo.Exists(ctx, userID, d.ID)
		if err != nil {
			return nil, err
		}
	}

	flags := Classify(d)

	var fullText string
	if admin || entitled {
		fullText = s.sanitizer.Sanitize(d.FullText)
		fullText = HighlightMatchingPhrases(d.Summary, fullText)
	} else {
		fullText = MaskContent(d.FullText, false, false)
	}

	var courtCases []*model.CourtCase
	if flags.CourtLinked && d.CaseNo != "" {
		courtCases, err = s.courtCaseRepo.ListByDecisionCaseNo(ctx, d.CaseNo)
		if err != nil {
			return nil, err
		}
	}

	return &DecisionDetail{
		ID:           d.ID,
		CaseNo:       MaskCaseNo(d.CaseNo, entitled, admin),
		Title:        d.Title,
		Summary:      MaskContent(d.Summary, entitled, admin),
		FullText:     fullText,
		Outcome:      d.Outcome,
		Category:     d.Category,
		Flags:        flags,
		Type:         ResolveProcurementType(d.CaseNo),
		PriceCredits: d.PriceCredits,
		Unlocked:     admin || entitled,
		CourtCases:   courtCases,
	}, nil
}

// ListCategories は登録済みカテゴリの一覧を返す。
func (s *DecisionService) ListCategories(ctx context.Context) ([]string, error) {
	return s.decisionRepo.ListCategories(ctx)
}

// unlockedSet はユーザーの解錠済み決定IDのセットを返す。
// 管理者は全件閲覧できるため空セットでよい（呼び出し側がロールで判定する）。
func (s *DecisionService) unlockedSet(ctx context.Context, userID, role string) (map[string]bool, error) {
	if userID == "" || role == RoleAdmin {
		return map[string]bool{}, nil
	}
	ids, err := s.purchaseRepo.ListDecisionIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
