// Package barcode 条码识别与外部商品库查询
package barcode

import (
	"regexp"
	"strings"
)

// 允许数字组之间夹空格或短横线，如 "0 12000 00131 2"
var digitRunRe = regexp.MustCompile(`\d[\d \-]{6,20}\d`)

// ValidChecksum 校验 UPC-A / EAN-8 / EAN-13 / GTIN-14 校验位
func ValidChecksum(code string) bool {
	switch len(code) {
	case 8, 12, 13, 14:
	default:
		return false
	}

	sum := 0
	weight := 3
	for i := len(code) - 2; i >= 0; i-- {
		c := code[i]
		if c < '0' || c > '9' {
			return false
		}
		sum += int(c-'0') * weight
		weight = 4 - weight
	}
	check := (10 - sum%10) % 10
	return int(code[len(code)-1]-'0') == check
}

// ExtractCode 从 OCR 文本中找出第一个校验通过的条码
func ExtractCode(text string) (string, bool) {
	for _, run := range digitRunRe.FindAllString(text, -1) {
		digits := strings.NewReplacer(" ", "", "-", "").Replace(run)
		if ValidChecksum(digits) {
			return digits, true
		}
	}
	return "", false
}

// Normalize 清理客户端传入的条码
func Normalize(code string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(code))
}
