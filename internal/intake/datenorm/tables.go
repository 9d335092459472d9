package datenorm

import (
	"regexp"
	"sort"
	"strings"
)

var monthNumbers = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7, "aug": 8,
	"sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
}

var dayNumbers = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5, "sixth": 6,
	"seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10, "eleventh": 11, "twelfth": 12,
	"thirteenth": 13, "fourteenth": 14, "fifteenth": 15, "sixteenth": 16, "seventeenth": 17,
	"eighteenth": 18, "nineteenth": 19, "twentieth": 20, "twenty-first": 21,
	"twenty-second": 22, "twenty-third": 23, "twenty-fourth": 24, "twenty-fifth": 25,
	"twenty-sixth": 26, "twenty-seventh": 27, "twenty-eighth": 28, "twenty-ninth": 29,
	"thirtieth": 30, "thirty-first": 31,
	"1st": 1, "2nd": 2, "3rd": 3, "4th": 4, "5th": 5, "6th": 6, "7th": 7, "8th": 8, "9th": 9,
	"10th": 10, "11th": 11, "12th": 12, "13th": 13, "14th": 14, "15th": 15, "16th": 16,
	"17th": 17, "18th": 18, "19th": 19, "20th": 20, "21st": 21, "22nd": 22, "23rd": 23,
	"24th": 24, "25th": 25, "26th": 26, "27th": 27, "28th": 28, "29th": 29, "30th": 30, "31st": 31,
}

// DateFieldNames are always treated as dates, whatever their spelling
// suggests.
var DateFieldNames = []string{
	"dateOfBirth", "dateOfDeath", "deceasedDateOfBirth", "deceasedDateOfDeath",
	"deceasedCertificateIssued", "funeralDateIssued", "benefitStartDate",
	"benefitEndDate", "applicationDate", "registrationDate",
}

var dateNameHints = []string{"date", "birth", "death", "issued"}

// exactLayouts are tried in order against the trimmed input.
var exactLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2006-01-02",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

var (
	writtenPattern = regexp.MustCompile(`\b(` + alternation(dayNumbers) + `)\s+(` + alternation(monthNumbers) + `)\s+(\d{4})`)
	dmyPattern     = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})\b`)
	ymdPattern     = regexp.MustCompile(`\b(\d{4})[/-](\d{1,2})[/-](\d{1,2})\b`)
	dayPattern     = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\b`)
	monthPattern   = regexp.MustCompile(`\b(` + alternation(monthNumbers) + `)\b`)
	yearPattern    = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

// alternation joins keys longest first so "sept" wins over "sep" and
// "twenty-first" over "first".
func alternation(table map[string]int) string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for i, k := range keys {
		keys[i] = regexp.QuoteMeta(k)
	}
	return strings.Join(keys, "|")
}
