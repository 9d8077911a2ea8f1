package util

import (
	"testing"
	"time"
)

func TestDayKey(t *testing.T) {
	loc := LoadLocation("Asia/Seoul")

	// UTC 2024-03-01 16:30 = KST 2024-03-02 01:30
	utc := time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC)
	if got := DayKey(utc, loc); got != "2024-03-02" {
		t.Errorf("DayKey = %s, want 2024-03-02", got)
	}
}

func TestStartOfWeek(t *testing.T) {
	loc := LoadLocation("Asia/Seoul")

	// 2024-03-07은 목요일, 월요일 시작 주의 시작일은 2024-03-04
	thu := time.Date(2024, 3, 7, 15, 0, 0, 0, loc)
	start := StartOfWeek(thu, loc, time.Monday)
	if got := start.Format(DayKeyLayout); got != "2024-03-04" {
		t.Errorf("StartOfWeek = %s, want 2024-03-04", got)
	}

	// 월요일 당일은 그대로 자신의 자정
	mon := time.Date(2024, 3, 4, 23, 59, 0, 0, loc)
	start = StartOfWeek(mon, loc, time.Monday)
	if got := start.Format(DayKeyLayout); got != "2024-03-04" {
		t.Errorf("StartOfWeek on monday = %s, want 2024-03-04", got)
	}

	// 일요일 시작 설정
	start = StartOfWeek(thu, loc, time.Sunday)
	if got := start.Format(DayKeyLayout); got != "2024-03-03" {
		t.Errorf("StartOfWeek sunday-start = %s, want 2024-03-03", got)
	}
}

func TestStartOfMonth(t *testing.T) {
	loc := LoadLocation("Asia/Seoul")

	mid := time.Date(2024, 2, 29, 12, 0, 0, 0, loc)
	start := StartOfMonth(mid, loc)
	if got := start.Format(DayKeyLayout); got != "2024-02-01" {
		t.Errorf("StartOfMonth = %s, want 2024-02-01", got)
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("09:30")
	if err != nil || h != 9 || m != 30 {
		t.Errorf("ParseClock(09:30) = %d:%d, %v", h, m, err)
	}

	if _, _, err := ParseClock("24:00"); err == nil {
		t.Error("ParseClock(24:00) should fail")
	}
	if _, _, err := ParseClock("12:60"); err == nil {
		t.Error("ParseClock(12:60) should fail")
	}
	if _, _, err := ParseClock("1230"); err == nil {
		t.Error("ParseClock(1230) should fail")
	}
	if _, _, err := ParseClock("ab:cd"); err == nil {
		t.Error("ParseClock(ab:cd) should fail")
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(3, 5); got != 60.0 {
		t.Errorf("Percent(3,5) = %v, want 60", got)
	}
	if got := Percent(2, 5); got != 40.0 {
		t.Errorf("Percent(2,5) = %v, want 40", got)
	}
	if got := Percent(1, 3); got != 33.3 {
		t.Errorf("Percent(1,3) = %v, want 33.3", got)
	}
	if got := Percent(0, 0); got != 0 {
		t.Errorf("Percent(0,0) = %v, want 0", got)
	}
}
