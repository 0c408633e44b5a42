package util

import (
	"Hydro/internal/pkg/consts"
	"time"
)

// LoadLocation 非法或空时区按 UTC 处理
func LoadLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ValidTimezone IANA 时区名是否可识别
func ValidTimezone(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// LocalDate t 在 loc 下的日历日期
func LocalDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(consts.DateLayout)
}

// NextMidnight loc 下 t 之后的第一个零点
func NextMidnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
}

func ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation(consts.DateLayout, date, time.UTC)
}

// ShiftDate 日期加减天数
func ShiftDate(date string, days int) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, days).Format(consts.DateLayout), nil
}

// WeekStart 日期所在 ISO 周的周一
func WeekStart(date string) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset).Format(consts.DateLayout), nil
}
