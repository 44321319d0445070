package decision

import (
	"regexp"
	"strings"

	"github.com/hitoshi/kararman/internal/model"
)

// typeCodePattern は決定番号の第2セグメント先頭の大文字ASCII連続を
// タイプコードとして抽出する。先頭アンカー付き。
var typeCodePattern = regexp.MustCompile(`^[A-Z]+`)

// typeTable はタイプコードから調達種別バッジへの正準マッピング。
// 歴史的には1文字の "Y" を Yapım とするコードパスも存在したが、
// 実データの大多数が使用する2文字 "UY" を正準とする。
// "2024/Y123" はこの表に載らず汎用フォールバックに落ちる（テストで固定）。
var typeTable = map[string]model.TypeInfo{
	"UY": {Label: "Yapım", Description: "Yapım İşi", ColorClass: "orange"},
	"M":  {Label: "Mal", Description: "Mal Alımı", ColorClass: "blue"},
	"H":  {Label: "Hizmet", Description: "Hizmet Alımı", ColorClass: "green"},
	"D":  {Label: "Danışmanlık", Description: "Danışmanlık Hizmeti", ColorClass: "purple"},
}

// ResolveProcurementType は決定番号から調達種別バッジを解決する。
//
// 番号を"/"で分割し、第2セグメント先頭の大文字連続をタイプコードとして
// 抽出する。セグメントが足りない、またはコードの形をしたトークンが
// なければnilを返す。表にないコードはnilではなく汎用フォールバック
// （ラベル=コードそのもの、グレー）を返す。コードの形をしたトークンが
// 見つかった以上、表が知らなくても何らかのバッジは常に表示する。
func ResolveProcurementType(caseNo string) *model.TypeInfo {
	parts := strings.Split(caseNo, "/")
	if len(parts) < 2 {
		return nil
	}

	code := typeCodePattern.FindString(parts[1])
	if code == "" {
		return nil
	}

	info, ok := typeTable[code]
	if !ok {
		info = model.TypeInfo{Label: code, Description: "Diğer", ColorClass: "gray"}
	}
	info.Code = code
	info.DisplayText = parts[0] + "/" + code
	return &info
}
