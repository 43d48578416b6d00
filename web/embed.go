package web

import "embed"

// TemplatesFS はサーバーサイドレンダリング用のHTMLテンプレートを埋め込む。
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS は静的ファイル（CSS等）を埋め込む。
//
//go:embed static/*
var StaticFS embed.FS
