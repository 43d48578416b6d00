// Package session は割り勘セッションの取得と参加者別の集計を提供する。
package session

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/sessionview/internal/model"
)

// PaymentStatus は参加者の支払い状態を表す。
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "pagado"
	StatusPending PaymentStatus = "pendiente"
	// StatusOverdue は表示上の区分として定義されているが、集計では生成されない。
	StatusOverdue PaymentStatus = "atrasado"
)

const (
	// UntitledSessionTitle は説明のないセッションのタイトル。
	UntitledSessionTitle = "Sesión sin descripción"
	// NotFoundSessionTitle は取得に失敗した場合のタイトル。
	NotFoundSessionTitle = "Sesión no encontrada"
)

// PlaceholderName は名前の分からない債務者の表示名を返す。
func PlaceholderName(id string) string {
	return "Usuario " + id
}

// SessionData はページ上部に表示するセッションの概要。
type SessionData struct {
	SessionID   string
	Title       string
	Date        string
	TotalAmount decimal.Decimal
}

// Participant は1人の債務者について集計した結果。
type Participant struct {
	ID               string
	Name             string
	AmountReimbursed decimal.Decimal
	Status           PaymentStatus
}

// Result はセッション概要と参加者一覧の組。
type Result struct {
	SessionData  SessionData
	Participants []Participant
}

// debtorGroup は集計中の債務者1人分の明細。
type debtorGroup struct {
	id    int64
	items []model.Item
}

// Aggregate はセッション、インボイス、インボイスごとの明細から表示用の集計結果を作る。
// 日付は常にnowから作る。入力は変更しない。
// 参加者の並びは、インボイス順・明細順に走査して債務者が最初に現れた順になる。
func Aggregate(sess model.Session, invoices []model.Invoice, itemsByInvoice map[int64][]model.Item, now time.Time) Result {
	total := decimal.Zero
	for _, inv := range invoices {
		total = total.Add(inv.Total)
	}

	title := UntitledSessionTitle
	if sess.Description != nil && *sess.Description != "" {
		title = *sess.Description
	}

	groups := groupByDebtor(invoices, itemsByInvoice)

	participants := make([]Participant, 0, len(groups))
	for _, g := range groups {
		participants = append(participants, summarize(g))
	}

	return Result{
		SessionData: SessionData{
			SessionID:   sess.ID,
			Title:       title,
			Date:        FormatLongDate(now),
			TotalAmount: total,
		},
		Participants: participants,
	}
}

// Fallback は取得に失敗した場合に表示する空の結果を返す。
func Fallback(sessionID string, now time.Time) Result {
	return Result{
		SessionData: SessionData{
			SessionID:   sessionID,
			Title:       NotFoundSessionTitle,
			Date:        FormatShortDate(now),
			TotalAmount: decimal.Zero,
		},
		Participants: []Participant{},
	}
}

// groupByDebtor は債務者のいる明細を債務者ごとにまとめる。
func groupByDebtor(invoices []model.Invoice, itemsByInvoice map[int64][]model.Item) []*debtorGroup {
	var groups []*debtorGroup
	index := make(map[int64]*debtorGroup)

	for _, inv := range invoices {
		for _, item := range itemsByInvoice[inv.ID] {
			debtorID, ok := item.DebtorKey()
			if !ok {
				continue
			}
			g, exists := index[debtorID]
			if !exists {
				g = &debtorGroup{id: debtorID}
				index[debtorID] = g
				groups = append(groups, g)
			}
			g.items = append(g.items, item)
		}
	}

	return groups
}

// summarize は債務者1人分の明細から参加者を作る。
func summarize(g *debtorGroup) Participant {
	amount := decimal.Zero
	allPaid := true
	for _, item := range g.items {
		amount = amount.Add(item.Total)
		if !item.IsPaid {
			allPaid = false
		}
	}

	status := StatusPending
	if allPaid {
		status = StatusPaid
	}

	id := strconv.FormatInt(g.id, 10)
	name := PlaceholderName(id)
	if first := g.items[0]; first.Debtor != nil && first.Debtor.Name != "" {
		name = first.Debtor.Name
	}

	return Participant{
		ID:               id,
		Name:             name,
		AmountReimbursed: amount,
		Status:           status,
	}
}
