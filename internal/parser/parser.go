// Package parser extracts payment details from bank alert emails.
package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/wallet-topups/internal/model"
)

// Confidence weights per extracted field.
const (
	weightAmount    = 0.5
	weightSender    = 0.2
	weightReference = 0.2
	weightCurrency  = 0.1
)

// Field names used in Result.Fields and stored snapshots.
const (
	FieldAmount    = "amount"
	FieldCurrency  = "currency"
	FieldSender    = "sender_name"
	FieldReference = "bank_reference"
)

const number = `([0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]{1,2})?|[0-9]+(?:\.[0-9]{1,2})?)`

var (
	amountBefore = regexp.MustCompile(`(?i)(₪|\$|€|£|\b(?:ILS|NIS|USD|EUR|GBP)\b)\s?` + number)
	amountAfter  = regexp.MustCompile(`(?i)` + number + `\s?(₪|\b(?:ILS|NIS|USD|EUR|GBP|shekels?|dollars?|euros?)\b)`)
	amountLabel  = regexp.MustCompile(`(?i)\bamount\s*[:=]?\s*` + number)

	referencePattern = regexp.MustCompile(`(?i)\b(?:reference|ref|confirmation|transaction id|txn)\b(?:\s*(?:no\.?|number|#))?\s*[:#.]?\s*([A-Z0-9][A-Z0-9-]{3,})`)

	senderPattern = regexp.MustCompile(`(?im)\b(?:from|paid by|sender|payer)\b\s*[:\-]?\s*(\p{L}[\p{L}.'\- ]{1,60}?)(?:\s+(?:has|sent|transferred|paid|to|on|via|for|with)\b|[,.;:!(]|$)`)

	transferKeywords = []string{"transfer", "received", "deposit", "credited", "payment", "paid"}

	currencyAliases = map[string]string{
		"₪": "ILS", "nis": "ILS", "ils": "ILS", "shekel": "ILS", "shekels": "ILS",
		"$": "USD", "usd": "USD", "dollar": "USD", "dollars": "USD",
		"€": "EUR", "eur": "EUR", "euro": "EUR", "euros": "EUR",
		"£": "GBP", "gbp": "GBP",
	}

	ignoredSenders = map[string]bool{"your bank": true, "the bank": true, "bank": true, "us": true}
)

// Result is the outcome of parsing one email.
type Result struct {
	Fields        map[string]string
	Amount        decimal.Decimal
	Currency      string
	SenderName    string
	BankReference string
	Confidence    float64
	IsTransaction bool
}

// Snapshot returns the parsed data stored alongside a top-up.
func (r Result) Snapshot(method model.ParseMethod) model.ParsedData {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return model.ParsedData{Fields: fields, Method: method, Confidence: r.Confidence}
}

// ParseText extracts payment fields from flattened message text (see Text).
// Currency falls back to defaultCurrency when the text does not state one.
func ParseText(text, defaultCurrency string) Result {
	result := Result{Fields: map[string]string{}}

	amount, currency, ok := findAmount(text)
	if ok {
		result.Amount = amount
		result.Fields[FieldAmount] = amount.String()
		result.Confidence += weightAmount
	}
	if currency != "" {
		result.Currency = currency
		result.Fields[FieldCurrency] = currency
		result.Confidence += weightCurrency
	} else {
		result.Currency = strings.ToUpper(defaultCurrency)
	}

	if sender := findSender(text); sender != "" {
		result.SenderName = sender
		result.Fields[FieldSender] = sender
		result.Confidence += weightSender
	}
	if ref := findReference(text); ref != "" {
		result.BankReference = ref
		result.Fields[FieldReference] = ref
		result.Confidence += weightReference
	}

	result.IsTransaction = ok && hasTransferKeyword(text)
	return result
}

// Text returns the subject and body of a message as plain text.
func Text(msg model.EmailMessage) string {
	body := msg.Body
	if strings.TrimSpace(body) == "" && msg.HTMLBody != "" {
		body = HTMLToText(msg.HTMLBody)
	}
	if strings.TrimSpace(body) == "" {
		body = msg.Snippet
	}
	return strings.TrimSpace(msg.Subject + "\n" + body)
}

// Excerpt shortens text to at most n runes on a word boundary.
func Excerpt(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)[:n]
	cut := strings.LastIndexFunc(string(runes), unicode.IsSpace)
	if cut > n/2 {
		return string(runes)[:cut] + "…"
	}
	return string(runes) + "…"
}

func findAmount(text string) (decimal.Decimal, string, bool) {
	type hit struct {
		value    string
		currency string
		at       int
	}
	var best *hit

	if m := amountBefore.FindStringSubmatchIndex(text); m != nil {
		best = &hit{currency: text[m[2]:m[3]], value: text[m[4]:m[5]], at: m[0]}
	}
	if m := amountAfter.FindStringSubmatchIndex(text); m != nil && (best == nil || m[0] < best.at) {
		best = &hit{value: text[m[2]:m[3]], currency: text[m[4]:m[5]], at: m[0]}
	}
	if best == nil {
		if m := amountLabel.FindStringSubmatch(text); m != nil {
			best = &hit{value: m[1]}
		}
	}
	if best == nil {
		return decimal.Zero, "", false
	}

	value, err := decimal.NewFromString(strings.ReplaceAll(best.value, ",", ""))
	if err != nil || !value.IsPositive() {
		return decimal.Zero, "", false
	}
	return value, currencyAliases[strings.ToLower(best.currency)], true
}

func findReference(text string) string {
	for _, m := range referencePattern.FindAllStringSubmatch(text, -1) {
		token := strings.Trim(m[1], "-")
		if strings.IndexFunc(token, unicode.IsDigit) >= 0 {
			return strings.ToUpper(token)
		}
	}
	return ""
}

func findSender(text string) string {
	for _, m := range senderPattern.FindAllStringSubmatch(text, -1) {
		name := strings.Join(strings.Fields(m[1]), " ")
		name = strings.Trim(name, " .-'")
		if len(name) < 2 || ignoredSenders[strings.ToLower(name)] {
			continue
		}
		return name
	}
	return ""
}

func hasTransferKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range transferKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
