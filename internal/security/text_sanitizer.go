// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はカードやメモの自由入力テキストをサニタイズし、
// 保存データに埋め込まれたHTMLがそのまま画面に出力されることを防ぐ。
// bluemondayのStrictPolicyで全タグを除去したうえで、
// エンティティ参照を元の文字に戻してプレーンテキストとして保存する。
package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService は自由入力テキストのサニタイズ機能のインターフェースを定義する。
// イベントのタイトル・場所、カードのタイトル、メモ本文の保存前に使用される。
type TextSanitizerService interface {
	// Sanitize は入力からHTMLタグを全て除去したプレーンテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(input string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを一切持たないため、scriptタグやイベント属性を
// 含むあらゆるHTMLが除去される。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からHTMLタグを全て除去したプレーンテキストを返す。
// StrictPolicyはテキスト中の特殊文字をエンティティ参照にエスケープするため、
// プレーンテキストとして保存できるようUnescapeStringで元に戻す。
func (s *textSanitizer) Sanitize(input string) string {
	return html.UnescapeString(s.policy.Sanitize(input))
}
