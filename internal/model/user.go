package model

// User はバックエンドのユーザーを表す。明細の債務者、インボイスの支払者として参照される。
type User struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}
