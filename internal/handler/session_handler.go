package handler

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/sessionview/internal/metrics"
	"github.com/hitoshi/sessionview/internal/middleware"
	"github.com/hitoshi/sessionview/internal/model"
	"github.com/hitoshi/sessionview/internal/security"
	"github.com/hitoshi/sessionview/internal/session"
	"github.com/hitoshi/sessionview/internal/view"
)

// SessionServiceInterface はセッションハンドラーが必要とするサービスインターフェース。
type SessionServiceInterface interface {
	// GetSessionData はセッションのレコードを取得して集計する。
	GetSessionData(ctx context.Context, sessionID string) (*session.Result, error)
	// Now は代替表示の日付に使う現在時刻を返す。
	Now() time.Time
}

// SessionHandler はセッション表示のHTTPハンドラー。
type SessionHandler struct {
	service   SessionServiceInterface
	templates *template.Template
	detector  security.MarkupDetector
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(
	service SessionServiceInterface,
	templates *template.Template,
	detector security.MarkupDetector,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		service:   service,
		templates: templates,
		detector:  detector,
		metrics:   collector,
		logger:    logger,
	}
}

// ShowSession はセッション画面を描画する。
// GET /session/{sessionId}
// 取得に失敗した場合も200で代替表示を返す。
func (h *SessionHandler) ShowSession(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionId"))
	if sessionID == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	var page view.SessionPage
	res, err := h.service.GetSessionData(r.Context(), sessionID)
	if err != nil {
		h.logFailure(r, sessionID, err)
		h.metrics.RecordSessionView(metrics.ResultFallback)

		page = view.NewSessionPage(session.Fallback(sessionID, h.service.Now()))
		page.NotFound = true
	} else {
		h.metrics.RecordSessionView(metrics.ResultOK)
		h.metrics.RecordParticipants(len(res.Participants))
		h.reportMarkup(r, res)

		page = view.NewSessionPage(*res)
	}

	if err := renderHTML(w, h.templates, "session.html", http.StatusOK, page); err != nil {
		h.logger.Error("template execution failed",
			slog.String("template", "session.html"),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// GetSessionSummary はセッションの集計結果をJSONで返す。
// GET /api/sessions/{sessionId}
// バックエンドでセッションが見つからない場合は404、それ以外の取得失敗は502を返す。
func (h *SessionHandler) GetSessionSummary(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionId"))

	res, err := h.service.GetSessionData(r.Context(), sessionID)
	if err != nil {
		h.logFailure(r, sessionID, err)
		handleFetchError(w, sessionID, err)
		return
	}

	h.metrics.RecordParticipants(len(res.Participants))
	h.reportMarkup(r, res)

	page := view.NewSessionPage(*res)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page.Summary())
}

// Index はセッションIDの入力フォームを描画する。
// GET /
func (h *SessionHandler) Index(w http.ResponseWriter, r *http.Request) {
	data := struct {
		SessionID string
	}{
		SessionID: strings.TrimSpace(r.URL.Query().Get("id")),
	}

	if err := renderHTML(w, h.templates, "index.html", http.StatusOK, data); err != nil {
		h.logger.Error("template execution failed",
			slog.String("template", "index.html"),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Lookup は入力フォームから送られたIDのセッション画面へリダイレクトする。
// GET /session?id=...
func (h *SessionHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("id"))
	if sessionID == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/session/"+url.PathEscape(sessionID), http.StatusSeeOther)
}

// logFailure は取得失敗をリソース種別付きで記録する。
func (h *SessionHandler) logFailure(r *http.Request, sessionID string, err error) {
	attrs := []slog.Attr{
		slog.String("session_id", sessionID),
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	}
	if resource, ok := model.ResourceOf(err); ok {
		attrs = append(attrs, slog.String("resource", string(resource)))
	}
	h.logger.LogAttrs(r.Context(), slog.LevelWarn, "failed to load session data", attrs...)
}

// reportMarkup はバックエンドのテキストにマークアップが含まれていれば記録する。
// 値は書き換えない。
func (h *SessionHandler) reportMarkup(r *http.Request, res *session.Result) {
	requestID := middleware.RequestIDFromContext(r.Context())

	if h.detector.ContainsMarkup(res.SessionData.Title) {
		h.logger.Warn("backend text contains markup",
			slog.String("field", "session_title"),
			slog.String("session_id", res.SessionData.SessionID),
			slog.String("request_id", requestID),
		)
	}
	for _, p := range res.Participants {
		if h.detector.ContainsMarkup(p.Name) {
			h.logger.Warn("backend text contains markup",
				slog.String("field", "participant_name"),
				slog.String("session_id", res.SessionData.SessionID),
				slog.String("participant_id", p.ID),
				slog.String("request_id", requestID),
			)
		}
	}
}

// handleFetchError は取得エラーを適切なHTTPステータスコードに変換する。
func handleFetchError(w http.ResponseWriter, sessionID string, err error) {
	resource, _ := model.ResourceOf(err)

	if model.IsNotFound(err) && resource == model.ResourceSession {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewSessionNotFoundError(sessionID))
		return
	}

	middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewUpstreamFailedError(resource))
}
