package model

import "github.com/shopspring/decimal"

// Item はインボイスの明細1行を表す。
// DebtorIDがnilの明細は誰にも割り当てられていない。
type Item struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	DebtorID    *int64          `json:"debtor_id"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Tip         decimal.Decimal `json:"tip"`
	Total       decimal.Decimal `json:"total"`
	IsPaid      bool            `json:"is_paid"`
	PaymentID   *int64          `json:"payment_id"`
	Description *string         `json:"description"`
	Debtor      *User           `json:"debtor,omitempty"`
}

// DebtorKey は債務者IDを返す。債務者がいない場合はfalse。
// バックエンドは未割り当てを0で返すことがあるため、0も未割り当てとして扱う。
func (i Item) DebtorKey() (int64, bool) {
	if i.DebtorID == nil || *i.DebtorID == 0 {
		return 0, false
	}
	return *i.DebtorID, true
}

// NeedsDebtorLookup は債務者IDがあるのにユーザー情報が埋め込まれていない場合にtrueを返す。
func (i Item) NeedsDebtorLookup() bool {
	_, ok := i.DebtorKey()
	return ok && i.Debtor == nil
}
