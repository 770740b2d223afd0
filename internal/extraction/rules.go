package extraction

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Rule extracts a single field from text.
type Rule interface {
	Field() string
	Apply(text string) (Value, bool)
}

var (
	// OCR often reads "@" as "©" or inserts a space next to it.
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+[ \t]?[@©][ \t]?[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	amountPattern = regexp.MustCompile(`\$\s?([0-9,]+\.[0-9]{2})`)
	datePattern   = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	phonePattern  = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
)

const maxDates = 3

// EmailRule extracts repaired, deduplicated email addresses.
type EmailRule struct{}

func (EmailRule) Field() string { return FieldEmails }

func (EmailRule) Apply(text string) (Value, bool) {
	var out []string
	for _, raw := range emailPattern.FindAllString(text, -1) {
		email := strings.NewReplacer(" ", "", "\t", "", "©", "@").Replace(raw)
		out = appendUnique(out, email)
	}
	if len(out) == 0 {
		return Value{}, false
	}
	return List(out), true
}

// SubjectRule returns the first line mentioning "Subject:" or "Re:".
type SubjectRule struct{}

func (SubjectRule) Field() string { return FieldSubject }

func (SubjectRule) Apply(text string) (Value, bool) {
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "Subject:") || strings.Contains(line, "Re:") {
			return Single(strings.TrimSpace(line)), true
		}
	}
	return Value{}, false
}

// TotalAmountRule reports the largest dollar amount, e.g. "$1,200.50".
type TotalAmountRule struct{}

func (TotalAmountRule) Field() string { return FieldTotalAmount }

func (TotalAmountRule) Apply(text string) (Value, bool) {
	best := int64(-1)
	for _, m := range amountPattern.FindAllStringSubmatch(text, -1) {
		cents, err := parseCents(m[1])
		if err != nil {
			continue
		}
		if cents > best {
			best = cents
		}
	}
	if best < 0 {
		return Value{}, false
	}
	return Single(FormatDollars(best)), true
}

// DatesRule returns up to three date tokens in source order.
type DatesRule struct{}

func (DatesRule) Field() string { return FieldDates }

func (DatesRule) Apply(text string) (Value, bool) {
	dates := datePattern.FindAllString(text, maxDates)
	if len(dates) == 0 {
		return Value{}, false
	}
	return List(dates), true
}

// PhoneRule returns the first North American phone number.
type PhoneRule struct{}

func (PhoneRule) Field() string { return FieldPhone }

func (PhoneRule) Apply(text string) (Value, bool) {
	phone := phonePattern.FindString(text)
	if phone == "" {
		return Value{}, false
	}
	return Single(phone), true
}

// parseCents converts "1,200.50" into 120050.
func parseCents(raw string) (int64, error) {
	digits := strings.ReplaceAll(raw, ",", "")
	whole, frac, ok := strings.Cut(digits, ".")
	if !ok || whole == "" || len(frac) != 2 {
		return 0, fmt.Errorf("malformed amount %q", raw)
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	if w > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("amount %q out of range", raw)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, err
	}
	return w*100 + f, nil
}

// FormatDollars renders cents as "$1,234.56".
func FormatDollars(cents int64) string {
	return fmt.Sprintf("$%s.%02d", humanize.Comma(cents/100), cents%100)
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
