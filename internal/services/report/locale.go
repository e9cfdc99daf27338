package report

import (
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var locales = map[string]struct {
	monday monday.Locale
	tag    language.Tag
}{
	"da": {monday.LocaleDaDK, language.Danish},
	"en": {monday.LocaleEnUS, language.English},
}

func lookupLocale(locale string) (monday.Locale, language.Tag) {
	l, ok := locales[locale]
	if !ok {
		l = locales["da"]
	}
	return l.monday, l.tag
}

// monthLabel renders "marts 2024" or "March 2024".
func monthLabel(locale string, year int, month time.Month) string {
	loc, _ := lookupLocale(locale)
	return monday.Format(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), "January 2006", loc)
}

// dayLabel is capitalized in every locale.
func dayLabel(locale string, d time.Weekday) string {
	loc, tag := lookupLocale(locale)
	// 2024-01-07 is a Sunday
	day := time.Date(2024, time.January, 7+int(d), 0, 0, 0, 0, time.UTC)
	return cases.Title(tag).String(monday.Format(day, "Monday", loc))
}
