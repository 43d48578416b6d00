package model

import "github.com/shopspring/decimal"

// Invoice はセッション内の1件の購入（レシート）を表す。
// 金額はバックエンドから数値または数値文字列で届くため decimal で受ける。
type Invoice struct {
	ID            int64           `json:"id"`
	Description   *string         `json:"description"`
	Total         decimal.Decimal `json:"total"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	PayerID       int64           `json:"payer_id"`
	SessionID     string          `json:"session_id"`
}
