package decision

import (
	"regexp"
	"strings"
)

const (
	// maxPreviewRunes はエンタイトルメントのない利用者に見せる
	// 全文プレビューの最大文字数。
	maxPreviewRunes = 100
	// previewSuffix はプレビュー末尾に付ける解錠誘導文。
	previewSuffix = "... [Devamını görmek için satın alın]"
	// caseNoMask はマスクした決定番号の伏せ字。
	caseNoMask = "***"
)

// leadingUppercase はマスク時に残すタイプコード部分の抽出に使う。
var leadingUppercase = regexp.MustCompile(`^[A-Z]+`)

// MaskContent は全文をエンタイトルメントに応じてマスクする。
// 管理者と解錠済み利用者には全文を返す。それ以外にはプレビュー長で
// 切り詰めて解錠誘導文を付ける。プレビュー長以下の本文はそのまま返す。
func MaskContent(content string, entitled, admin bool) string {
	if admin || entitled {
		return content
	}
	if content == "" {
		return ""
	}

	runes := []rune(content)
	if len(runes) <= maxPreviewRunes {
		return content
	}
	return string(runes[:maxPreviewRunes]) + previewSuffix
}

// MaskCaseNo は決定番号をエンタイトルメントに応じてマスクする。
// 年とタイプコードだけを残す（"2024/UY***"）。"/"区切りでない番号は
// 先頭4文字のみ見せる。
func MaskCaseNo(caseNo string, entitled, admin bool) string {
	if admin || entitled {
		return caseNo
	}

	parts := strings.SplitN(caseNo, "/", 2)
	if len(parts) == 2 {
		code := leadingUppercase.FindString(parts[1])
		return parts[0] + "/" + code + caseNoMask
	}

	runes := []rune(caseNo)
	if len(runes) > 4 {
		runes = runes[:4]
	}
	return string(runes) + "****"
}
