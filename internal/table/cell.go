package table

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	upperSnake = regexp.MustCompile(`^[A-Z_]+$`)
	datePrefix = regexp.MustCompile(`\d{4}[-/]\d{2}[-/]\d{2}`)
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

const msTimestampFloor = 1e11

// FormatCell renders a value for display: booleans as yes/no in lang,
// long ids shortened, UPPER_SNAKE as title case, dates as YYYY/MM/DD.
// Dates are shown in UTC.
func FormatCell(key string, v any, lang string) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		return yesNo(x, lang)
	case string:
		if strings.Contains(strings.ToLower(key), "id") && len(x) > 8 {
			return x[:8] + "..."
		}
		if upperSnake.MatchString(x) {
			return TitleCase(x)
		}
		if datePrefix.MatchString(x) {
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, x); err == nil {
					return day(t)
				}
			}
		}
		return x
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return day(x)
	case float64:
		if x > msTimestampFloor {
			return day(time.UnixMilli(int64(x)))
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		if x > msTimestampFloor {
			return day(time.UnixMilli(x))
		}
		return strconv.FormatInt(x, 10)
	}
	return fmt.Sprint(v)
}

func day(t time.Time) string { return t.UTC().Format("2006/01/02") }

func yesNo(b bool, lang string) string {
	switch {
	case b && lang == "es":
		return "Sí"
	case b:
		return "Yes"
	}
	return "No"
}
