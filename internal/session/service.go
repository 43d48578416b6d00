package session

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/sessionview/internal/model"
)

// API はセッション集計に必要なバックエンドAPIの操作。
type API interface {
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	ListInvoicesBySession(ctx context.Context, sessionID string) ([]model.Invoice, error)
	ListItemsByInvoice(ctx context.Context, invoiceID int64) ([]model.Item, error)
	GetUser(ctx context.Context, userID int64) (*model.User, error)
}

// Service はセッションの取得と集計を行うサービス層。
// 明細とユーザーの取得は並行に行い、1件でも失敗したら全体を失敗とする。
type Service struct {
	api           API
	logger        *slog.Logger
	maxConcurrent int
	now           func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// maxConcurrentはバックエンドへの同時リクエスト数の上限（1未満は1として扱う）。
func NewService(api API, logger *slog.Logger, maxConcurrent int) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Service{
		api:           api,
		logger:        logger,
		maxConcurrent: maxConcurrent,
		now:           time.Now,
	}
}

// Now はサービスの時計で現在時刻を返す。
func (s *Service) Now() time.Time {
	return s.now()
}

// GetSessionData はセッションに関するレコードをすべて取得して集計する。
// どの取得が失敗してもエラーを返し、部分的な結果は返さない。
func (s *Service) GetSessionData(ctx context.Context, sessionID string) (*Result, error) {
	sess, err := s.api.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	invoices, err := s.api.ListInvoicesBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	itemsByInvoice, err := s.fetchItems(ctx, invoices)
	if err != nil {
		return nil, err
	}

	missing := missingDebtors(invoices, itemsByInvoice)
	if len(missing) > 0 {
		users, err := s.fetchUsers(ctx, missing)
		if err != nil {
			return nil, err
		}
		itemsByInvoice = attachDebtors(itemsByInvoice, users)
	}

	result := Aggregate(*sess, invoices, itemsByInvoice, s.now())

	s.logger.Debug("session aggregated",
		slog.String("session_id", sessionID),
		slog.Int("invoices", len(invoices)),
		slog.Int("participants", len(result.Participants)),
		slog.Int("users_fetched", len(missing)),
	)

	return &result, nil
}

// fetchItems は全インボイスの明細を並行に取得する。
func (s *Service) fetchItems(ctx context.Context, invoices []model.Invoice) (map[int64][]model.Item, error) {
	results := make([][]model.Item, len(invoices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for i, inv := range invoices {
		i, inv := i, inv
		g.Go(func() error {
			items, err := s.api.ListItemsByInvoice(gctx, inv.ID)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	itemsByInvoice := make(map[int64][]model.Item, len(invoices))
	for i, inv := range invoices {
		itemsByInvoice[inv.ID] = results[i]
	}
	return itemsByInvoice, nil
}

// fetchUsers は指定されたユーザーを並行に取得し、返されたユーザーのIDをキーにしたマップを返す。
func (s *Service) fetchUsers(ctx context.Context, userIDs []int64) (map[int64]model.User, error) {
	results := make([]*model.User, len(userIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for i, id := range userIDs {
		i, id := i, id
		g.Go(func() error {
			user, err := s.api.GetUser(gctx, id)
			if err != nil {
				return err
			}
			results[i] = user
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	users := make(map[int64]model.User, len(results))
	for _, u := range results {
		if u != nil {
			users[u.ID] = *u
		}
	}
	return users, nil
}

// missingDebtors はユーザー情報が埋め込まれていない債務者IDを最初に現れた順に重複なく返す。
func missingDebtors(invoices []model.Invoice, itemsByInvoice map[int64][]model.Item) []int64 {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, inv := range invoices {
		for _, item := range itemsByInvoice[inv.ID] {
			if !item.NeedsDebtorLookup() {
				continue
			}
			id := *item.DebtorID
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// attachDebtors は取得したユーザーを埋め込んだ明細のコピーを返す。元のスライスは変更しない。
func attachDebtors(itemsByInvoice map[int64][]model.Item, users map[int64]model.User) map[int64][]model.Item {
	out := make(map[int64][]model.Item, len(itemsByInvoice))
	for invoiceID, items := range itemsByInvoice {
		augmented := make([]model.Item, len(items))
		for i, item := range items {
			if item.NeedsDebtorLookup() {
				if u, ok := users[*item.DebtorID]; ok {
					item.Debtor = &u
				}
			}
			augmented[i] = item
		}
		out[invoiceID] = augmented
	}
	return out
}
