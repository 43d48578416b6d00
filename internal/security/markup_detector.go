// Package security はアプリケーションのセキュリティ機能を提供する。
//
// MarkupDetector はバックエンドから受け取った表示用テキスト（セッションの説明、ユーザー名）に
// HTMLのマークアップが含まれているかを判定する。値は書き換えない。
// 出力時のエスケープはhtml/templateとencoding/jsonが行う。
package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// MarkupDetector は表示用テキストのマークアップ検出のインターフェースを定義する。
type MarkupDetector interface {
	// ContainsMarkup はbluemondayのStrictPolicyが取り除く要素（タグ、コメント等）が
	// テキストに含まれる場合にtrueを返す。
	ContainsMarkup(raw string) bool
}

// markupDetector はMarkupDetectorの実装。
// bluemondayのポリシーはスレッドセーフなので複数のリクエストから共有できる。
type markupDetector struct {
	policy *bluemonday.Policy
}

// NewMarkupDetector はMarkupDetectorの新しいインスタンスを生成する。
func NewMarkupDetector() MarkupDetector {
	return &markupDetector{
		policy: bluemonday.StrictPolicy(),
	}
}

// ContainsMarkup はStrictPolicyを通した結果が元のテキストと一致しない場合にtrueを返す。
func (d *markupDetector) ContainsMarkup(raw string) bool {
	if raw == "" {
		return false
	}
	// StrictPolicyの出力はエンティティ化されているため、戻してから比較する
	return html.UnescapeString(d.policy.Sanitize(raw)) != raw
}
