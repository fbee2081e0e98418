package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ContentRequiredMessage は空のメモを保存しようとしたときにユーザーへ表示する文言
const ContentRequiredMessage = "メモ内容を入力してください。"

var idPattern = regexp.MustCompile(`^\d+$`)

// CustomValidator は拡張バリデーション機能を提供
type CustomValidator struct {
	validator *validator.Validate
}

// ValidationError はバリデーションエラーの詳細情報
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationErrors は複数のバリデーションエラー
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (ve ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d errors", len(ve.Errors))
}

// HasTag 指定したタグのエラーが含まれているか
func (ve ValidationErrors) HasTag(tag string) bool {
	for _, e := range ve.Errors {
		if e.Tag == tag {
			return true
		}
	}
	return false
}

// NewCustomValidator creates a new custom validator instance
func NewCustomValidator() *CustomValidator {
	v := validator.New()
	cv := &CustomValidator{validator: v}

	// カスタムバリデーションルールを登録
	v.RegisterValidation("not_blank", cv.validateNotBlank)
	v.RegisterValidation("safe_text", cv.validateSafeText)

	return cv
}

// Validate validates a struct and returns detailed error information
func (cv *CustomValidator) Validate(s interface{}) error {
	err := cv.validator.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	validationErrors := make([]ValidationError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: cv.generateErrorMessage(fe),
		})
	}
	return ValidationErrors{Errors: validationErrors}
}

// カスタムバリデーション関数

func (cv *CustomValidator) validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func (cv *CustomValidator) validateSafeText(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if r < 32 && r != 9 && r != 10 && r != 13 { // タブ、改行、復帰以外の制御文字を拒否
			return false
		}
		if r == 127 {
			return false
		}
	}
	return true
}

// generateErrorMessage generates user-friendly error messages
func (cv *CustomValidator) generateErrorMessage(err validator.FieldError) string {
	field := err.Field()

	switch err.Tag() {
	case "not_blank":
		return ContentRequiredMessage
	case "required":
		return fmt.Sprintf("%s は必須項目です", field)
	case "max":
		return fmt.Sprintf("%s は %s 文字以下で入力してください", field, err.Param())
	case "safe_text":
		return fmt.Sprintf("%s に不正な文字が含まれています", field)
	default:
		return fmt.Sprintf("%s が無効です", field)
	}
}

// ValidateID validates a memo id path parameter
func (cv *CustomValidator) ValidateID(idStr string) (int, error) {
	if !idPattern.MatchString(idStr) {
		return 0, fmt.Errorf("ID must be a positive integer")
	}

	// 長さチェック（異常に長いIDを防ぐ）
	if len(idStr) > 10 {
		return 0, fmt.Errorf("ID is too long")
	}

	var id int
	if _, err := fmt.Sscanf(idStr, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid ID format")
	}
	if id <= 0 {
		return 0, fmt.Errorf("ID must be positive")
	}

	return id, nil
}
