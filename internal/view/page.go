// Package view はセッション画面の表示モデルを提供する。
// 集計結果に統計値、通貨表記、状態ラベルを加え、テンプレートとJSONの両方から使う。
package view

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/sessionview/internal/session"
)

// shortIDLength はヘッダーに表示するセッションIDの桁数。
const shortIDLength = 8

// SessionPage はセッション画面1枚分の表示モデル。
type SessionPage struct {
	SessionID    string
	ShortID      string
	Title        string
	Date         string
	TotalAmount  decimal.Decimal
	Total        string
	Stats        Stats
	Participants []ParticipantRow
	// NotFound は取得に失敗して代替表示になっている場合にtrue。
	NotFound bool
}

// Stats はページ上部の統計カード。
type Stats struct {
	TotalParticipants int
	TotalReimbursed   decimal.Decimal
	Remaining         decimal.Decimal
	Reimbursed        string
	RemainingLabel    string
}

// ParticipantRow は参加者テーブルの1行。
type ParticipantRow struct {
	ID          string
	Name        string
	Amount      decimal.Decimal
	AmountLabel string
	Status      session.PaymentStatus
	StatusLabel string
	BadgeClass  string
}

// NewSessionPage は集計結果から表示モデルを作る。
// タイトルと名前は集計結果のまま渡す。エスケープは出力側で行う。
func NewSessionPage(res session.Result) SessionPage {
	reimbursed := decimal.Zero
	rows := make([]ParticipantRow, 0, len(res.Participants))
	for _, p := range res.Participants {
		reimbursed = reimbursed.Add(p.AmountReimbursed)
		label, badge := statusDisplay(p.Status)
		rows = append(rows, ParticipantRow{
			ID:          p.ID,
			Name:        p.Name,
			Amount:      p.AmountReimbursed,
			AmountLabel: FormatCLP(p.AmountReimbursed),
			Status:      p.Status,
			StatusLabel: label,
			BadgeClass:  badge,
		})
	}

	remaining := res.SessionData.TotalAmount.Sub(reimbursed)

	return SessionPage{
		SessionID:   res.SessionData.SessionID,
		ShortID:     ShortID(res.SessionData.SessionID),
		Title:       res.SessionData.Title,
		Date:        res.SessionData.Date,
		TotalAmount: res.SessionData.TotalAmount,
		Total:       FormatCLP(res.SessionData.TotalAmount),
		Stats: Stats{
			TotalParticipants: len(rows),
			TotalReimbursed:   reimbursed,
			Remaining:         remaining,
			Reimbursed:        FormatCLP(reimbursed),
			RemainingLabel:    FormatCLP(remaining),
		},
		Participants: rows,
	}
}

// ShortID はセッションIDの先頭8文字に "..." を付けて返す。8文字以下でも "..." は付ける。
func ShortID(id string) string {
	r := []rune(id)
	return string(r[:min(len(r), shortIDLength)]) + "..."
}

// statusDisplay は支払い状態の表示ラベルとバッジのCSSクラスを返す。
func statusDisplay(s session.PaymentStatus) (string, string) {
	switch s {
	case session.StatusPaid:
		return "Pagado", "badge badge-paid"
	case session.StatusOverdue:
		return "Atrasado", "badge badge-overdue"
	default:
		return "Pendiente", "badge badge-pending"
	}
}

// --- JSON表現 ---

// SessionSummary はJSON APIのレスポンス本体。
type SessionSummary struct {
	SessionData  SessionDataJSON   `json:"sessionData"`
	Participants []ParticipantJSON `json:"participants"`
	Stats        StatsJSON         `json:"estadisticas"`
}

// SessionDataJSON はセッション概要のJSON表現。
type SessionDataJSON struct {
	SessionID   string      `json:"sessionId"`
	Title       string      `json:"tituloCompra"`
	Date        string      `json:"fecha"`
	TotalAmount json.Number `json:"montoTotal"`
}

// ParticipantJSON は参加者のJSON表現。
type ParticipantJSON struct {
	ID               string      `json:"id"`
	Name             string      `json:"nombre"`
	AmountReimbursed json.Number `json:"montoReembolsadoEnEstaCompra"`
	Status           string      `json:"estadoPago"`
}

// StatsJSON は統計値のJSON表現。
type StatsJSON struct {
	TotalParticipants int         `json:"totalParticipantes"`
	TotalReimbursed   json.Number `json:"montoTotalReembolsado"`
	Remaining         json.Number `json:"saldoFaltante"`
}

// Summary は表示モデルをJSON APIのレスポンス形式に変換する。金額は数値として出力する。
func (p SessionPage) Summary() SessionSummary {
	participants := make([]ParticipantJSON, 0, len(p.Participants))
	for _, row := range p.Participants {
		participants = append(participants, ParticipantJSON{
			ID:               row.ID,
			Name:             row.Name,
			AmountReimbursed: json.Number(row.Amount.String()),
			Status:           string(row.Status),
		})
	}

	return SessionSummary{
		SessionData: SessionDataJSON{
			SessionID:   p.SessionID,
			Title:       p.Title,
			Date:        p.Date,
			TotalAmount: json.Number(p.TotalAmount.String()),
		},
		Participants: participants,
		Stats: StatsJSON{
			TotalParticipants: p.Stats.TotalParticipants,
			TotalReimbursed:   json.Number(p.Stats.TotalReimbursed.String()),
			Remaining:         json.Number(p.Stats.Remaining.String()),
		},
	}
}
