package inputvalidator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// 輸入長度限制常量
const (
	MaxInputBuffer = 4096 // 輸入緩衝區最大長度（4KB）
	MaxMenuInput   = 100  // 菜單輸入最大長度
	MaxFieldLength = 512  // 單個設定項值的最大長度，路徑和倉庫地址都在此之內
)

var reMenuInput = regexp.MustCompile(`^[0-9]+$`)

// ValidationError 驗證錯誤
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateLength 驗證字符串長度
func ValidateLength(input string, maxLen int, fieldName string) error {
	if len(input) > maxLen {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("長度超過限制（最大 %d 字符，當前 %d 字符）", maxLen, len(input)),
		}
	}
	return nil
}

// ParseMenuNumber 校驗並解析列表編號，取值必須落在 1..max
func ParseMenuNumber(input string, max int) (int, error) {
	input = strings.TrimSpace(input)

	if len(input) > 10 {
		return 0, &ValidationError{Field: "menu", Message: "輸入過長"}
	}

	if !reMenuInput.MatchString(input) {
		return 0, &ValidationError{Field: "menu", Message: "只允許數字"}
	}

	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > max {
		return 0, &ValidationError{Field: "menu", Message: fmt.Sprintf("編號須在 1-%d 之間", max)}
	}

	return n, nil
}

// TruncateInput 截斷過長的輸入
func TruncateInput(input string, maxLen int) string {
	if len(input) <= maxLen {
		return input
	}
	return input[:maxLen]
}

// SanitizeInput 清理輸入（移除控制字符）
func SanitizeInput(input string) string {
	var result strings.Builder
	for _, r := range input {
		if r >= 32 && r != 127 {
			result.WriteRune(r)
		}
	}
	return result.String()
}
