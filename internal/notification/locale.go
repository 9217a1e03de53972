package notification

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// dateFormat renders a long date the way a given locale writes it.
type dateFormat struct {
	months  [12]string
	pattern func(day int, month string, year int) string
}

var englishMonths = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// supportedLocales and dateFormats are index-aligned; the first entry is the
// matcher fallback.
var (
	supportedLocales = []language.Tag{
		language.AmericanEnglish,
		language.BritishEnglish,
		language.French,
		language.German,
		language.Spanish,
		language.Portuguese,
	}

	dateFormats = []dateFormat{
		{months: englishMonths, pattern: func(d int, m string, y int) string { return fmt.Sprintf("%s %d, %d", m, d, y) }},
		{months: englishMonths, pattern: func(d int, m string, y int) string { return fmt.Sprintf("%d %s %d", d, m, y) }},
		{
			months: [12]string{"janvier", "février", "mars", "avril", "mai", "juin",
				"juillet", "août", "septembre", "octobre", "novembre", "décembre"},
			pattern: func(d int, m string, y int) string { return fmt.Sprintf("%d %s %d", d, m, y) },
		},
		{
			months: [12]string{"Januar", "Februar", "März", "April", "Mai", "Juni",
				"Juli", "August", "September", "Oktober", "November", "Dezember"},
			pattern: func(d int, m string, y int) string { return fmt.Sprintf("%d. %s %d", d, m, y) },
		},
		{
			months: [12]string{"enero", "febrero", "marzo", "abril", "mayo", "junio",
				"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
			pattern: func(d int, m string, y int) string { return fmt.Sprintf("%d de %s de %d", d, m, y) },
		},
		{
			months: [12]string{"janeiro", "fevereiro", "março", "abril", "maio", "junho",
				"julho", "agosto", "setembro", "outubro", "novembro", "dezembro"},
			pattern: func(d int, m string, y int) string { return fmt.Sprintf("%d de %s de %d", d, m, y) },
		},
	}
)

// localeFormatter picks a long-date format for a BCP 47 locale string.
type localeFormatter struct {
	matcher  language.Matcher
	fallback string
}

func newLocaleFormatter(fallback string) *localeFormatter {
	return &localeFormatter{
		matcher:  language.NewMatcher(supportedLocales),
		fallback: fallback,
	}
}

// LongDate formats t in the locale's long-date style. Unknown or empty
// locales use the fallback, then American English.
func (f *localeFormatter) LongDate(t time.Time, locale string) string {
	if locale == "" {
		locale = f.fallback
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	_, idx, _ := f.matcher.Match(tag)
	df := dateFormats[idx]
	return df.pattern(t.Day(), df.months[t.Month()-1], t.Year())
}
