package verbalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// monthNamesEN and monthNamesDE back the long-form date variants the
// verifier accepts in polished prose.
var (
	monthNamesEN = [...]string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"}
	monthNamesDE = [...]string{"Januar", "Februar", "März", "April", "Mai", "Juni",
		"Juli", "August", "September", "Oktober", "November", "Dezember"}
)

// FormatAmountSwiss renders an amount with apostrophe thousands
// separators and two decimals: 1250 becomes 1'250.00.
func FormatAmountSwiss(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]

	neg := false
	if strings.HasPrefix(intPart, "-") {
		neg = true
		intPart = intPart[1:]
	}
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('\'')
		}
		b.WriteRune(c)
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

// FormatDateDisplay renders an ISO date as DD.MM.YYYY.
func FormatDateDisplay(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02.01.2006")
}

// ordinal returns the English ordinal suffix form of a day number.
func ordinal(day int) string {
	suffix := "th"
	switch day % 10 {
	case 1:
		if day%100 != 11 {
			suffix = "st"
		}
	case 2:
		if day%100 != 12 {
			suffix = "nd"
		}
	case 3:
		if day%100 != 13 {
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", day, suffix)
}

// dateVariants lists every written form of an ISO date the verifier
// accepts: 15.04.2026, 15/04/2026, 2026-04-15, "15th of April 2026",
// "April 15, 2026" and "15. April 2026".
func dateVariants(iso string) []string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return []string{iso}
	}
	day, month, year := t.Day(), int(t.Month()), t.Year()
	en := monthNamesEN[month-1]
	de := monthNamesDE[month-1]
	return []string{
		t.Format("02.01.2006"),
		t.Format("2.1.2006"),
		t.Format("02/01/2006"),
		iso,
		fmt.Sprintf("%s of %s %d", ordinal(day), en, year),
		fmt.Sprintf("%s %s %d", ordinal(day), en, year),
		fmt.Sprintf("%s %d, %d", en, day, year),
		fmt.Sprintf("%d. %s %d", day, de, year),
	}
}

// containsDate reports whether prose carries the ISO date in any
// accepted written form.
func containsDate(prose, iso string) bool {
	lower := strings.ToLower(prose)
	for _, v := range dateVariants(iso) {
		if strings.Contains(lower, strings.ToLower(v)) {
			return true
		}
	}
	return false
}

// amountVariants lists the written forms of an amount the verifier
// accepts. Whole amounts may drop the decimals.
func amountVariants(v float64) []string {
	variants := []string{
		FormatAmountSwiss(v),
		strconv.FormatFloat(v, 'f', 2, 64),
		withCommaThousands(v),
	}
	if v == float64(int64(v)) {
		whole := strconv.FormatInt(int64(v), 10)
		variants = append(variants, swissWhole(int64(v)), whole)
	}
	return variants
}

func withCommaThousands(v float64) string {
	return strings.ReplaceAll(FormatAmountSwiss(v), "'", ",")
}

func swissWhole(v int64) string {
	s := FormatAmountSwiss(float64(v))
	return strings.TrimSuffix(s, ".00")
}

// containsAmount reports whether prose carries the amount in any
// accepted written form, bounded by non-digit characters.
func containsAmount(prose string, v float64) bool {
	for _, variant := range amountVariants(v) {
		if containsBounded(prose, variant) {
			return true
		}
	}
	return false
}

// containsBounded finds needle in haystack with no digit butted up
// against either end, so 250 does not match inside 1250.
func containsBounded(haystack, needle string) bool {
	for from := 0; ; {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			return false
		}
		idx += from
		before := idx - 1
		after := idx + len(needle)
		beforeOK := before < 0 || !isDigit(haystack[before])
		afterOK := after >= len(haystack) || !isDigit(haystack[after])
		if beforeOK && afterOK {
			return true
		}
		from = idx + 1
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

var (
	reDateToken = regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.\d{4}\b|\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}/\d{4}\b`)
	// Money-looking tokens: thousands-marked or two-decimal numbers.
	reAmountToken = regexp.MustCompile(`\b\d{1,3}(?:[',]\d{3})+(?:\.\d{2})?\b|\b\d+\.\d{2}\b`)
	reCountNoun   = regexp.MustCompile(`(?i)\b(\d{1,4})\s*(?:guests?|people|persons?|participants?|attendees?|personen|gäste)\b`)
)

// foreignDates returns date tokens in prose that do not belong to the
// allowed ISO set. The long written forms are produced from allowed
// dates only, so scanning numeric tokens is sufficient.
func foreignDates(prose string, allowedISO []string) []string {
	allowed := make(map[string]bool)
	for _, iso := range allowedISO {
		for _, v := range dateVariants(iso) {
			allowed[strings.ToLower(v)] = true
		}
	}
	var foreign []string
	for _, tok := range reDateToken.FindAllString(prose, -1) {
		if !allowed[strings.ToLower(tok)] {
			foreign = append(foreign, tok)
		}
	}
	return foreign
}

// foreignAmounts returns money-looking tokens in prose whose numeric
// value is not one of the allowed amounts. Date tokens are masked before
// scanning so 15.04 in a date never reads as an amount.
func foreignAmounts(prose string, allowed []float64) []string {
	masked := reDateToken.ReplaceAllString(prose, " ")
	var foreign []string
	for _, tok := range reAmountToken.FindAllString(masked, -1) {
		v, err := parseAmountToken(tok)
		if err != nil {
			continue
		}
		if !amountAllowed(v, allowed) {
			foreign = append(foreign, tok)
		}
	}
	return foreign
}

// foreignCounts returns participant-style counts in prose that differ
// from the expected count.
func foreignCounts(prose string, expected int) []string {
	var foreign []string
	for _, m := range reCountNoun.FindAllStringSubmatch(prose, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n != expected {
			foreign = append(foreign, m[0])
		}
	}
	return foreign
}

func parseAmountToken(tok string) (float64, error) {
	clean := strings.NewReplacer("'", "", ",", "").Replace(tok)
	return strconv.ParseFloat(clean, 64)
}

func amountAllowed(v float64, allowed []float64) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
