package decision

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// highlightOpen はハイライトマーカーの開始タグ。
	// フロントエンドとの互換のためインラインスタイル込みで固定する。
	highlightOpen  = `<mark style="background-color: yellow; color: black; padding: 1px 2px; border-radius: 2px;">`
	highlightClose = `</mark>`

	// maxPhraseLength はスライディングウィンドウの最大語数。
	maxPhraseLength = 6
	// minPhraseLength はスライディングウィンドウの最小語数。
	minPhraseLength = 2
	// minTokenRunes はトークンとして採用する最小文字数。
	minTokenRunes = 2
)

// nonWordPattern はトークンから語構成文字以外を除去する。
// トルコ語字母（çğıöşüとその大文字）は語構成文字として保持する。
var nonWordPattern = regexp.MustCompile(`[^\wçğıöşüÇĞIİÖŞÜ]`)

// HighlightMatchingPhrases は要約（fingerprint）と全文（body）の間で
// 共有される最長の語列をbody側でマークアップして返す。
// 一致しなかった部分のテキストは一切変更しない。
//
// 候補フレーズは長いものから順に試す。長く特異なフレーズが、
// 短く一般的な部分フレーズより先に一致を主張できるようにするためである。
//
// 互換性に関する注意: いずれかのフレーズが一度マーカーを挿入すると、
// 以降の候補は長さにかかわらず一切試行されない。ガードはマーカーの
// 有無を位置単位ではなく本文全体で確認する。これは移行元の確立された
// 挙動であり、独立した複数フレーズを個別にハイライトする「より正しい」
// 実装に置き換えると観測可能な出力が変わるため、意図的に保存している。
func HighlightMatchingPhrases(fingerprint, body string) string {
	if fingerprint == "" || body == "" {
		return body
	}

	words := tokenizeFingerprint(fingerprint)
	if len(words) < minPhraseLength {
		// 意味のある照合ができない
		return body
	}

	highlighted := body

	maxLen := len(words)
	if maxLen > maxPhraseLength {
		maxLen = maxPhraseLength
	}

	for phraseLen := maxLen; phraseLen >= minPhraseLength; phraseLen-- {
		for i := 0; i+phraseLen <= len(words); i++ {
			phrase := words[i : i+phraseLen]

			// メタ文字のエスケープは語単位で行う。語の連結部は
			// リテラルではなく空白許容パターン\s+で表現するため。
			escaped := make([]string, len(phrase))
			for k, w := range phrase {
				escaped[k] = regexp.QuoteMeta(w)
			}

			pattern, err := regexp.Compile(`(?i)(` + strings.Join(escaped, `\s+`) + `)`)
			if err != nil {
				continue
			}

			if pattern.MatchString(highlighted) && !strings.Contains(highlighted, "<mark") {
				highlighted = pattern.ReplaceAllString(highlighted, highlightOpen+"$1"+highlightClose)
			}
		}
	}

	return highlighted
}

// tokenizeFingerprint は要約テキストを照合用トークン列へ変換する。
// 小文字化し、空白で分割し、語構成文字以外を除去し、2文字未満を捨てる。
func tokenizeFingerprint(s string) []string {
	var tokens []string
	for _, raw := range strings.Fields(strings.ToLower(s)) {
		w := nonWordPattern.ReplaceAllString(raw, "")
		if utf8.RuneCountInString(w) >= minTokenRunes {
			tokens = append(tokens, w)
		}
	}
	return tokens
}
