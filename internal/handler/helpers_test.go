package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"github.com/hitoshi/sessionview/internal/metrics"
	"github.com/hitoshi/sessionview/internal/middleware"
	"github.com/hitoshi/sessionview/internal/security"
	"github.com/hitoshi/sessionview/internal/session"
)

// fixedNow はテスト用の固定時刻。
var fixedNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

// --- モック定義 ---

type mockSessionService struct {
	getSessionDataFn func(ctx context.Context, sessionID string) (*session.Result, error)
}

func (m *mockSessionService) GetSessionData(ctx context.Context, sessionID string) (*session.Result, error) {
	return m.getSessionDataFn(ctx, sessionID)
}

func (m *mockSessionService) Now() time.Time {
	return fixedNow
}

// sampleResult は2人の参加者を持つ集計結果を返す。
func sampleResult(sessionID string) *session.Result {
	return &session.Result{
		SessionData: session.SessionData{
			SessionID:   sessionID,
			Title:       "Cena Viernes",
			Date:        "19 de octubre de 2026",
			TotalAmount: decimal.NewFromInt(2000),
		},
		Participants: []session.Participant{
			{ID: "7", Name: "Ana", AmountReimbursed: decimal.NewFromInt(1500), Status: session.StatusPending},
			{ID: "9", Name: "Usuario 9", AmountReimbursed: decimal.NewFromInt(300), Status: session.StatusPaid},
		},
	}
}

// testEnv はテスト用ルーターとメトリクスレジストリの組。
type testEnv struct {
	router  http.Handler
	reg     *prometheus.Registry
	limiter *middleware.RateLimiter
	logs    *bytes.Buffer
}

// newTestEnv はモックサービスを使ったルーターを組み立てる。
func newTestEnv(t *testing.T, svc SessionServiceInterface, rlConfig middleware.RateLimiterConfig) *testEnv {
	t.Helper()

	templates, err := LoadTemplates()
	if err != nil {
		t.Fatalf("failed to load templates: %v", err)
	}

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, nil))

	reg := prometheus.NewRegistry()
	limiter := middleware.NewRateLimiter(rlConfig, logger)
	t.Cleanup(limiter.Stop)

	router, err := NewRouter(&RouterDeps{
		Logger:            logger,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       limiter,
		Metrics:           metrics.NewCollector(reg),
		MetricsHandler:    metrics.Handler(reg),
		SessionService:    svc,
		Templates:         templates,
		MarkupDetector:    security.NewMarkupDetector(),
	})
	if err != nil {
		t.Fatalf("failed to build router: %v", err)
	}

	return &testEnv{router: router, reg: reg, limiter: limiter, logs: logs}
}

// counterValue はラベル値が一致するカウンターの値を返す。見つからない場合は0。
func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

// --- HTML検査ヘルパー ---

func parseHTML(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	return doc
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// findByID は指定idの要素を返す。
func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		if v, ok := attr(n, "id"); ok && v == id {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// findAll は条件に一致する要素をすべて返す。
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	if n.Type == html.ElementNode && match(n) {
		out = append(out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findAll(c, match)...)
	}
	return out
}

// textContent は要素配下のテキストを連結して前後の空白を除いたものを返す。
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// mustText は指定idの要素のテキストを返す。要素がなければテストを失敗させる。
func mustText(t *testing.T, doc *html.Node, id string) string {
	t.Helper()
	n := findByID(doc, id)
	if n == nil {
		t.Fatalf("element #%s not found", id)
	}
	return textContent(n)
}

// participantRows はdata-participant-idを持つ行を返す。
func participantRows(doc *html.Node) []*html.Node {
	return findAll(doc, func(n *html.Node) bool {
		_, ok := attr(n, "data-participant-id")
		return n.Data == "tr" && ok
	})
}

// digitsOf は文字列から数字だけを取り出す。
func digitsOf(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
