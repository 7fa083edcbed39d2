// Package document recognises business documents in plain text files and
// pulls out the fields a field crew looks for first: what kind of document
// it is, its number and date, the amounts, and who issued it.
//
// Everything here is keyword and pattern matching over the text; nothing is
// validated against a backend.
package document

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
)

// Type is the detected kind of document.
type Type string

const (
	Unknown       Type = "unknown"
	Invoice       Type = "invoice"
	Receipt       Type = "receipt"
	PurchaseOrder Type = "purchase_order"
	Bill          Type = "bill"
)

// Label is the display form of t.
func (t Type) Label() string {
	switch t {
	case Invoice:
		return "Invoice"
	case Receipt:
		return "Receipt"
	case PurchaseOrder:
		return "Purchase order"
	case Bill:
		return "Bill"
	default:
		return "Document"
	}
}

type rule struct {
	typ      Type
	keywords []string
	number   *regexp.Regexp
}

// Rules are scored in this order; the first highest score wins ties.
var rules = []rule{
	{
		typ: Invoice,
		keywords: []string{
			"invoice", "inv#", "invoice number", "invoice no", "bill to",
			"invoice date", "due date", "amount due", "total due",
		},
		number: regexp.MustCompile(`\binv[#\s]*[\d-]+`),
	},
	{
		typ: Receipt,
		keywords: []string{
			"receipt", "thank you", "payment received", "transaction",
			"card ending", "change", "cash", "subtotal", "tax",
		},
		number: regexp.MustCompile(`\breceipt[#\s]*[\d-]+`),
	},
	{
		typ: PurchaseOrder,
		keywords: []string{
			"purchase order", "po number", "po#", "p.o.", "order number",
			"delivery date", "ship to", "billing address",
		},
		number: regexp.MustCompile(`\b(?:po[#\s]*|p\.o\.\s*)[\d-]+`),
	},
	{
		typ: Bill,
		keywords: []string{
			"bill", "statement", "account number", "previous balance",
			"current charges", "amount owed",
		},
		number: regexp.MustCompile(`\bbill[#\s]*[\d-]+`),
	},
}

// numberBonus is added when a rule's document-number pattern matches.
const numberBonus = 2

// Classify scores text against each document type's keywords and number
// pattern and returns the best match, or Unknown when nothing matched.
func Classify(text string) Type {
	lower := strings.ToLower(text)
	best, bestScore := Unknown, 0
	for _, r := range rules {
		score := 0
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if r.number.MatchString(lower) {
			score += numberBonus
		}
		if score > bestScore {
			best, bestScore = r.typ, score
		}
	}
	return best
}

// Fields are the values extracted from a document. Absent values are empty
// strings or nil.
type Fields struct {
	Number  string
	Date    string // YYYY-MM-DD
	Amount  *float64
	Total   *float64
	Tax     *float64
	Vendor  string
	Address string
}

// Summary is a classified and parsed document.
type Summary struct {
	Type Type
	Fields
}

// Analyze classifies and parses text.
func Analyze(text string) Summary {
	return Summary{Type: Classify(text), Fields: Parse(text)}
}

// Line renders the summary on one line, e.g.
// "Invoice INV-1042 · 2024-03-05 · total 2,222.55 · tax 202.05 · ACME SUPPLY INC".
// It is empty for an unrecognised document.
func (s Summary) Line() string {
	if s.Type == Unknown {
		return ""
	}
	head := s.Type.Label()
	if s.Number != "" {
		head += " " + s.Number
	}
	parts := []string{head}
	if s.Date != "" {
		parts = append(parts, s.Date)
	}
	if s.Total != nil {
		parts = append(parts, "total "+formatAmount(*s.Total))
	}
	if s.Tax != nil {
		parts = append(parts, "tax "+formatAmount(*s.Tax))
	}
	if s.Vendor != "" {
		parts = append(parts, s.Vendor)
	}
	return strings.Join(parts, " · ")
}

func formatAmount(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

var (
	numberPatterns = compileAll(
		`(?i)\binvoice\s*(?:number|no\.?)?[#\s:]*([A-Z0-9-]*\d[A-Z0-9-]*)`,
		`(?i)\binv[#\s:]*([A-Z0-9-]*\d[A-Z0-9-]*)`,
		`(?i)\bpurchase\s+order\s*(?:number|no\.?)?[#\s:]*([A-Z0-9-]*\d[A-Z0-9-]*)`,
		`(?i)\bpo\s*(?:number|no\.?)?[#\s:]*([A-Z0-9-]*\d[A-Z0-9-]*)`,
		`(?i)\bbill\s*(?:number|no\.?)?[#\s:]*([A-Z0-9-]*\d[A-Z0-9-]*)`,
		`(?i)\breceipt\s*(?:number|no\.?)?[#\s:]*([A-Z0-9-]*\d[A-Z0-9-]*)`,
		`(?i)\bnumber[:\s]*([A-Z0-9-]*\d[A-Z0-9-]*)`,
	)
	datePatterns = compileAll(
		`(?i)date[:\s]*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
		`(\d{4}[/-]\d{1,2}[/-]\d{1,2})`,
		`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
	)
	totalPatterns = compileAll(
		`(?i)\bgrand\s+total[:\s]*\$?([\d,]+\.?\d*)`,
		`(?i)\btotal[:\s]*\$?([\d,]+\.?\d*)`,
		`(?i)\bamount\s+due[:\s]*\$?([\d,]+\.?\d*)`,
	)
	taxPatterns = compileAll(
		`(?i)\btax[:\s]*\$?([\d,]+\.?\d*)`,
		`(?i)\bgst[:\s]*\$?([\d,]+\.?\d*)`,
		`(?i)\bvat[:\s]*\$?([\d,]+\.?\d*)`,
	)
	amountPattern  = regexp.MustCompile(`\$?([\d,]+\.\d{2})\b`)
	symbolsOnly    = regexp.MustCompile(`^[\d\s$.,:]+$`)
	companyPattern = regexp.MustCompile(`(?i)\b(?:inc|ltd|llc|corp|company)\b`)
	addressPattern = regexp.MustCompile(`(?i)(\d+[ \t]+[A-Za-z \t]+?\b(?:Street|St|Avenue|Ave|Road|Rd|Drive|Dr|Lane|Ln|Boulevard|Blvd)\b[ \t,]+[A-Za-z \t,]+(?:\d{5})?)`)
)

// dateLayouts accept dates after '/' has been normalised to '-'.
var dateLayouts = []string{"2006-1-2", "1-2-2006", "1-2-06"}

// vendorScanLines bounds how far from the top the issuer is looked for.
const vendorScanLines = 10

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Parse extracts Fields from text.
func Parse(text string) Fields {
	f := Fields{
		Number:  firstMatch(numberPatterns, strings.ToUpper(text)),
		Date:    parseDate(text),
		Amount:  largestAmount(text),
		Tax:     firstAmount(taxPatterns, text),
		Vendor:  vendor(text),
		Address: strings.TrimSpace(firstMatch([]*regexp.Regexp{addressPattern}, text)),
	}
	f.Total = firstAmount(totalPatterns, text)
	if f.Total == nil {
		f.Total = f.Amount
	}
	return f
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func parseDate(text string) string {
	for _, re := range datePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			value := strings.ReplaceAll(m[1], "/", "-")
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, value); err == nil {
					return t.Format("2006-01-02")
				}
			}
		}
	}
	return ""
}

func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func firstAmount(patterns []*regexp.Regexp, text string) *float64 {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if v, ok := parseAmount(m[1]); ok {
				return &v
			}
		}
	}
	return nil
}

func largestAmount(text string) *float64 {
	var best *float64
	for _, m := range amountPattern.FindAllStringSubmatch(text, -1) {
		v, ok := parseAmount(m[1])
		if !ok || v <= 0 {
			continue
		}
		if best == nil || v > *best {
			best = &v
		}
	}
	return best
}

func vendor(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > vendorScanLines {
		lines = lines[:vendorScanLines]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		n := len([]rune(line))
		if n <= 3 || n >= 100 || symbolsOnly.MatchString(line) {
			continue
		}
		if companyPattern.MatchString(line) {
			return line
		}
		if n >= 5 && n <= 50 && isUpper(line) {
			return line
		}
	}
	return ""
}

// isUpper reports whether s has at least one letter and no lowercase ones.
func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
