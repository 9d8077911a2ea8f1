package util

import (
	"fmt"
	"math"
)

// Percent: 부분값의 전체 대비 백분율을 소수점 한 자리로 반올림하여 반환한다.
// 전체가 0 이하이면 0을 반환한다.
func Percent(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

// FormatKoreanNumber: 한국어 단위(만)로 숫자를 포맷팅합니다.
// 예: 10000 -> "1만", 12345 -> "1만 2345", 500 -> "500"
func FormatKoreanNumber(n int64) string {
	if n >= 10000 {
		man := n / 10000
		remainder := n % 10000
		if remainder == 0 {
			return fmt.Sprintf("%d만", man)
		}
		return fmt.Sprintf("%d만 %d", man, remainder)
	}
	return fmt.Sprintf("%d", n)
}
