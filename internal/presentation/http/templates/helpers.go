package templates

import (
	"strconv"
	"time"
)

var monthAbbreviations = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// FormatDate renders a publication date as "15 mar 2021". A nil date renders
// as an empty string.
func FormatDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	utc := value.UTC()
	day := utc.Format("02")
	return day + " " + monthAbbreviations[utc.Month()-1] + " " + strconv.Itoa(utc.Year())
}

func pageTitle(title string) string {
	if title == "" {
		return SiteName
	}
	return title + " | " + SiteName
}
