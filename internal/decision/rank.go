package decision

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/hitoshi/kararman/internal/model"
)

// yearPattern は決定番号中の最初の4桁連続数字を年として抽出する。
// 先頭アンカーは付けない。歴史的インポートには前置詞付きの番号が混在する。
var yearPattern = regexp.MustCompile(`\d{4}`)

// extractYear は決定番号から年トークンを抽出する。
// 4桁連続数字が見つからない場合はfalseを返す。
func extractYear(caseNo string) (int, bool) {
	m := yearPattern.FindString(caseNo)
	if m == "" {
		return 0, false
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return year, true
}

// rankKey はソート中に再計算を避けるための事前計算済みキー。
type rankKey struct {
	flags   model.Flags
	year    int
	hasYear bool
}

// Rank は決定一覧を表示優先順に並べた新しいスライスを返す。
// 入力スライスは変更しない。レコードの欠落・重複は発生しない。
//
// 比較は次の優先順で行い、各段は前段の同値のみを分解する:
//  1. 裁判所紐付き（青）が先
//  2. 申立人有利（緑）が先
//  3. 決定番号から抽出した年の降順。どちらかの年が欠けていれば次段へ
//  4. 決定番号全体の辞書順降順（数値比較ではない）
//
// 安定ソートを使用する。同順位の要素はページをまたいで再適用されても
// 入力順を保ち、既に見えている並びを乱さない。
func Rank(ds []*model.Decision) []*model.Decision {
	ranked := make([]*model.Decision, len(ds))
	copy(ranked, ds)

	keys := make([]rankKey, len(ranked))
	for i, d := range ranked {
		keys[i].flags = Classify(d)
		keys[i].year, keys[i].hasYear = extractYear(caseNoOf(d))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := keys[i], keys[j]

		if a.flags.CourtLinked != b.flags.CourtLinked {
			return a.flags.CourtLinked
		}
		if a.flags.Favorable != b.flags.Favorable {
			return a.flags.Favorable
		}
		if a.hasYear && b.hasYear && a.year != b.year {
			return a.year > b.year
		}
		return caseNoOf(ranked[i]) > caseNoOf(ranked[j])
	})

	return ranked
}

// caseNoOf はnil決定を空番号として扱う。
func caseNoOf(d *model.Decision) string {
	if d == nil {
		return ""
	}
	return d.CaseNo
}
