package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayKeyLayout: 달력 날짜 키 포맷
const DayKeyLayout = "2006-01-02"

// LoadLocation: 타임존 이름으로 Location을 로드한다.
// 로드 실패 시 KST 고정 오프셋으로 폴백한다.
func LoadLocation(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("KST", 9*60*60)
}

// DayKey: 주어진 시간이 속한 달력 날짜 키("2006-01-02")를 반환한다.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayKeyLayout)
}

// ParseDayKey: 날짜 키를 해당 타임존의 자정 시각으로 파싱한다.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayKeyLayout, key, loc)
}

// StartOfDay: 주어진 시간이 속한 날의 자정을 반환한다.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// StartOfWeek: 주어진 시간이 속한 주의 시작(weekStart 요일의 자정)을 반환한다.
func StartOfWeek(t time.Time, loc *time.Location, weekStart time.Weekday) time.Time {
	day := StartOfDay(t, loc)
	diff := int(day.Weekday()) - int(weekStart)
	if diff < 0 {
		diff += 7
	}
	return day.AddDate(0, 0, -diff)
}

// StartOfMonth: 주어진 시간이 속한 달의 1일 자정을 반환한다.
func StartOfMonth(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// ParseClock: "HH:MM" 형식의 시각 문자열을 검증하고 시/분으로 분해한다.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock format: %q (want HH:MM)", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock hour: %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock minute: %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock out of range: %q", s)
	}
	return hour, minute, nil
}

// FormatClock: 시/분을 "HH:MM" 문자열로 포맷한다.
func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
