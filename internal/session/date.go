package session

import (
	"fmt"
	"time"
)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FormatLongDate は日付をチリのスペイン語の長い形式で返す（例: 19 de octubre de 2026）。
func FormatLongDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}

// FormatShortDate は日付をチリの短い形式で返す（例: 19-10-2026）。
func FormatShortDate(t time.Time) string {
	return t.Format("02-01-2006")
}
