// Package backend は割り勘バックエンドAPIのクライアントを提供する。
// セッション・インボイス・明細・ユーザーの4つの取得エンドポイントを扱う。
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/sessionview/internal/metrics"
	"github.com/hitoshi/sessionview/internal/model"
)

// maxResponseSize はレスポンスボディの読み取り上限（5MB）。
const maxResponseSize = 5 << 20

// Client はバックエンドAPIのクライアント。
// リトライは行わない。失敗はリソース種別付きのエラーとして返す。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
	baseURL    string
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLは末尾のスラッシュを含まない形（例: http://localhost:8000）で渡す。
// collectorがnilの場合はメトリクスを記録しない。
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger, collector metrics.MetricsCollector) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    collector,
		baseURL:    baseURL,
	}
}

// GetSession はセッションを1件取得する。
func (c *Client) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	var sess model.Session
	path := "/api/v1/sessions/" + url.PathEscape(sessionID)
	if err := c.getJSON(ctx, model.ResourceSession, path, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListInvoicesBySession はセッションに属するインボイスを取得する。
func (c *Client) ListInvoicesBySession(ctx context.Context, sessionID string) ([]model.Invoice, error) {
	var invoices []model.Invoice
	path := "/api/v1/invoices/session/" + url.PathEscape(sessionID)
	if err := c.getJSON(ctx, model.ResourceInvoices, path, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// ListItemsByInvoice はインボイスに属する明細を取得する。
func (c *Client) ListItemsByInvoice(ctx context.Context, invoiceID int64) ([]model.Item, error) {
	var items []model.Item
	path := "/api/v1/items/invoice/" + strconv.FormatInt(invoiceID, 10)
	if err := c.getJSON(ctx, model.ResourceItems, path, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetUser はユーザーを1件取得する。
func (c *Client) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	path := "/api/v1/users/" + strconv.FormatInt(userID, 10)
	if err := c.getJSON(ctx, model.ResourceUser, path, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// getJSON はGETリクエストを送り、2xxのレスポンスボディをoutにデコードする。
// トランスポート失敗はNetworkError、2xx以外はRemoteErrorとして返す。
func (c *Client) getJSON(ctx context.Context, resource model.Resource, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Sessionview/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.recordLatency(resource, time.Since(start))
	if err != nil {
		c.recordRequest(resource, metrics.OutcomeNetworkError)
		c.logger.Error("バックエンドAPIの呼び出しに失敗しました",
			slog.String("resource", string(resource)),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return &model.NetworkError{Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	c.recordRequest(resource, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 404は呼び出し元で想定内の分岐になるためWarnに留める
		level := slog.LevelError
		if resp.StatusCode == http.StatusNotFound {
			level = slog.LevelWarn
		}
		c.logger.Log(ctx, level, "バックエンドAPIがエラーステータスを返しました",
			slog.String("resource", string(resource)),
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return &model.RemoteError{Resource: resource, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("resource", string(resource)),
			slog.String("error", err.Error()),
		)
		return &model.NetworkError{Resource: resource, Err: err}
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("バックエンドAPIのレスポンスのパースに失敗しました",
			slog.String("resource", string(resource)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to decode %s: %w", resource, err)
	}

	return nil
}

func (c *Client) recordRequest(resource model.Resource, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordUpstreamRequest(string(resource), outcome)
	}
}

func (c *Client) recordLatency(resource model.Resource, d time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordUpstreamLatency(string(resource), d)
	}
}
