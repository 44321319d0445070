// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。メッセージはポータルの
// 利用者向けにトルコ語で記述する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, decision, credit, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeDecisionNotFound    = "DECISION_NOT_FOUND"
	ErrCodeInvalidPage         = "INVALID_PAGE"
	ErrCodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	ErrCodePetitionNotFound    = "PETITION_NOT_FOUND"
	ErrCodePetitionIncomplete  = "PETITION_INCOMPLETE"
	ErrCodeInvalidAttachment   = "INVALID_ATTACHMENT"
	ErrCodeEmptyMessage        = "EMPTY_MESSAGE"
	ErrCodeGenerationFailed    = "GENERATION_FAILED"
)

// NewDecisionNotFoundError は決定未検出エラーを生成する。
func NewDecisionNotFoundError(decisionID string) *APIError {
	return &APIError{
		Code:     ErrCodeDecisionNotFound,
		Message:  fmt.Sprintf("Karar bulunamadı: %s", decisionID),
		Category: "decision",
		Action:   "Karar bağlantısını kontrol edin.",
	}
}

// NewInvalidPageError は無効なページ番号エラーを生成する。
func NewInvalidPageError(page string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPage,
		Message:  fmt.Sprintf("Geçersiz sayfa numarası: %s", page),
		Category: "validation",
		Action:   "Sayfa numarası 1 veya daha büyük bir tam sayı olmalıdır.",
	}
}

// NewInsufficientCreditsError はクレジット残高不足エラーを生成する。
func NewInsufficientCreditsError() *APIError {
	return &APIError{
		Code:     ErrCodeInsufficientCredits,
		Message:  "Kredi bakiyeniz yetersiz.",
		Category: "credit",
		Action:   "Kararın tam metnini görmek için kredi satın alın.",
	}
}

// NewPetitionNotFoundError は申立書未検出エラーを生成する。
func NewPetitionNotFoundError(petitionID string) *APIError {
	return &APIError{
		Code:     ErrCodePetitionNotFound,
		Message:  fmt.Sprintf("Dilekçe bulunamadı: %s", petitionID),
		Category: "validation",
		Action:   "Dilekçe kimliğini kontrol edin.",
	}
}

// NewPetitionIncompleteError は生成に必要な項目が不足しているエラーを生成する。
func NewPetitionIncompleteError() *APIError {
	return &APIError{
		Code:     ErrCodePetitionIncomplete,
		Message:  "Dilekçe oluşturmak için konu ve olay özeti alanları zorunludur.",
		Category: "validation",
		Action:   "Eksik alanları doldurup tekrar deneyin.",
	}
}

// NewInvalidAttachmentError は添付PDFの検証失敗エラーを生成する。
func NewInvalidAttachmentError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAttachment,
		Message:  fmt.Sprintf("Geçersiz PDF eki: %s", reason),
		Category: "validation",
		Action:   "Geçerli bir PDF dosyası yükleyin.",
	}
}

// NewEmptyMessageError は空のチャットメッセージエラーを生成する。
func NewEmptyMessageError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyMessage,
		Message:  "Mesaj boş olamaz.",
		Category: "validation",
		Action:   "Bir soru yazıp tekrar gönderin.",
	}
}

// NewGenerationFailedError はAI生成失敗エラーを生成する。
func NewGenerationFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeGenerationFailed,
		Message:  "Yanıt oluşturulamadı.",
		Category: "system",
		Action:   "Lütfen biraz bekleyip tekrar deneyin.",
	}
}
