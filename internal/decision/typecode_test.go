package decision

import "testing"

// TestResolveProcurementType_KnownCodes は正準表の4コードが
// 正しいバッジに解決されることをテストする。
func TestResolveProcurementType_KnownCodes(t *testing.T) {
	tests := []struct {
		caseNo    string
		wantCode  string
		wantLabel string
		wantColor string
	}{
		{"2024/UY1234", "UY", "Yapım", "orange"},
		{"2023/M55", "M", "Mal", "blue"},
		{"2022/H7", "H", "Hizmet", "green"},
		{"2021/D99", "D", "Danışmanlık", "purple"},
	}

	for _, tt := range tests {
		t.Run(tt.caseNo, func(t *testing.T) {
			info := ResolveProcurementType(tt.caseNo)
			if info == nil {
				t.Fatal("expected non-nil TypeInfo")
			}
			if info.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", info.Code, tt.wantCode)
			}
			if info.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", info.Label, tt.wantLabel)
			}
			if info.ColorClass != tt.wantColor {
				t.Errorf("ColorClass = %q, want %q", info.ColorClass, tt.wantColor)
			}
		})
	}
}

// TestResolveProcurementType_UnknownCodeFallback は表にないコードが
// nilではなく汎用フォールバックに解決されることをテストする。
func TestResolveProcurementType_UnknownCodeFallback(t *testing.T) {
	info := ResolveProcurementType("2024/ZZ55")
	if info == nil {
		t.Fatal("expected non-nil fallback TypeInfo")
	}
	if info.Label != "ZZ" {
		t.Errorf("Label = %q, want %q", info.Label, "ZZ")
	}
	if info.Description != "Diğer" {
		t.Errorf("Description = %q, want %q", info.Description, "Diğer")
	}
	if info.ColorClass != "gray" {
		t.Errorf("ColorClass = %q, want %q", info.ColorClass, "gray")
	}
}

// TestResolveProcurementType_Malformed は不正な形式の番号がnilに
// 縮退することをテストする。
func TestResolveProcurementType_Malformed(t *testing.T) {
	tests := []string{
		"not-a-case-number",
		"",
		"2024/1234", // タイプコードなし
		"2024/uy12", // 小文字はコードとして扱わない
	}

	for _, caseNo := range tests {
		if info := ResolveProcurementType(caseNo); info != nil {
			t.Errorf("ResolveProcurementType(%q) = %+v, want nil", caseNo, info)
		}
	}
}

// TestResolveProcurementType_SingleLetterAmbiguity は正準表の確認。
// 2文字 "UY" が Yapım に解決され、1文字 "Y" は表に載らず
// フォールバックへ落ちる。
func TestResolveProcurementType_SingleLetterAmbiguity(t *testing.T) {
	uy := ResolveProcurementType("2024/UY123")
	if uy == nil || uy.Label != "Yapım" {
		t.Fatalf("UY resolved to %+v, want Yapım", uy)
	}

	y := ResolveProcurementType("2024/Y123")
	if y == nil {
		t.Fatal("expected non-nil fallback for single-letter Y")
	}
	if y.Label != "Y" || y.Description != "Diğer" {
		t.Errorf("Y resolved to {Label:%q Description:%q}, want generic fallback", y.Label, y.Description)
	}
}

// TestResolveProcurementType_DisplayText は表示用短縮形が
// "年/コード" になることをテストする。
func TestResolveProcurementType_DisplayText(t *testing.T) {
	info := ResolveProcurementType("2024/UY1234")
	if info.DisplayText != "2024/UY" {
		t.Errorf("DisplayText = %q, want %q", info.DisplayText, "2024/UY")
	}
}
