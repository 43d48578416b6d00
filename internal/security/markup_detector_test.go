package security

import (
	"testing"
)

// TestContainsMarkup_PlainText はプレーンテキストがマークアップとして扱われないことを検証する。
func TestContainsMarkup_PlainText(t *testing.T) {
	detector := NewMarkupDetector()

	inputs := []string{
		"",
		"Asado en la casa de Camila",
		"Cena de cumpleaños",
		"Ñandú & Compañía",
		"Pizza 'napolitana'",
		`Dijo "salud"`,
		"3 > 2",
		"  Matías  ",
	}
	for _, input := range inputs {
		if detector.ContainsMarkup(input) {
			t.Errorf("ContainsMarkup(%q) = true, want false", input)
		}
	}
}

// TestContainsMarkup_DetectsTags はタグやイベントハンドラを含むテキストを検出することを検証する。
func TestContainsMarkup_DetectsTags(t *testing.T) {
	detector := NewMarkupDetector()

	inputs := []string{
		"<b>Camila</b>",
		`<a href="https://example.com">Once</a> con amigos`,
		`Cena<script>alert('xss')</script>`,
		`<svg onload="alert('xss')">`,
		`<img src="x" onerror="alert('xss')">Ana`,
		`<p OnClick="alert('xss')">texto</p>`,
		"Juan <Jr>",
		"<!-- comentario -->Ana",
	}
	for _, input := range inputs {
		if !detector.ContainsMarkup(input) {
			t.Errorf("ContainsMarkup(%q) = false, want true", input)
		}
	}
}

// TestContainsMarkup_Deterministic は同一入力に対して常に同一の判定を返すことを検証する。
func TestContainsMarkup_Deterministic(t *testing.T) {
	detector := NewMarkupDetector()

	input := `<em>Asado</em> & <strong>once</strong>`
	first := detector.ContainsMarkup(input)
	for i := 0; i < 3; i++ {
		if got := detector.ContainsMarkup(input); got != first {
			t.Fatalf("判定が変わった: 1回目=%v, %d回目=%v", first, i+2, got)
		}
	}
}
