// Package model はバックエンドAPIのレコードとエラー分類を定義する。
package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Resource はバックエンドAPIのリソース種別を表す。
// 取得失敗時のエラーメッセージでどのリソースが失敗したかを示すために使う。
type Resource string

const (
	ResourceSession  Resource = "session"
	ResourceInvoices Resource = "invoices"
	ResourceItems    Resource = "items"
	ResourceUser     Resource = "user"
)

// RemoteError はバックエンドが成功以外のHTTPステータスを返したことを表す。
type RemoteError struct {
	Resource   Resource
	StatusCode int
	Status     string // 例: "404 Not Found"
}

// Error はerrorインターフェースを実装する。
func (e *RemoteError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("failed to fetch %s: %s", e.Resource, status)
}

// NetworkError はトランスポート層の失敗（接続不可、タイムアウト、キャンセル）を表す。
type NetworkError struct {
	Resource Resource
	Err      error
}

// Error はerrorインターフェースを実装する。
func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Resource, e.Err)
}

// Unwrap は元のエラーを返す。
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNotFound はエラーがバックエンドの404に由来する場合にtrueを返す。
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.StatusCode == http.StatusNotFound
}

// ResourceOf はエラーの原因となったリソース種別を返す。
// RemoteErrorでもNetworkErrorでもない場合はfalse。
func ResourceOf(err error) (Resource, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Resource, true
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Resource, true
	}
	return "", false
}

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: session, upstream, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeSessionNotFound = "SESSION_NOT_FOUND"
	ErrCodeUpstreamFailed  = "UPSTREAM_FAILED"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// NewSessionNotFoundError はセッション未検出エラーを生成する。
func NewSessionNotFoundError(sessionID string) *APIError {
	return &APIError{
		Code:     ErrCodeSessionNotFound,
		Message:  fmt.Sprintf("No se encontró la sesión: %s", sessionID),
		Category: "session",
		Action:   "Verifica el enlace o el identificador de la sesión.",
	}
}

// NewUpstreamFailedError はバックエンド取得失敗エラーを生成する。
// 失敗したリソース種別が分かる場合はメッセージに含める。
func NewUpstreamFailedError(resource Resource) *APIError {
	msg := "No se pudieron obtener los datos de la sesión."
	if resource != "" {
		msg = fmt.Sprintf("No se pudieron obtener los datos de la sesión (%s).", resource)
	}
	return &APIError{
		Code:     ErrCodeUpstreamFailed,
		Message:  msg,
		Category: "upstream",
		Action:   "Intenta nuevamente en unos minutos.",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Demasiadas solicitudes.",
		Category: "system",
		Action:   "Espera unos segundos y vuelve a intentarlo.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ残す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Ocurrió un error interno.",
		Category: "system",
		Action:   "Intenta nuevamente en unos minutos.",
	}
}
