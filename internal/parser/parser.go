// Package parser turns one line of free text into a signed ledger candidate.
//
// Grammar, informally:
//
//	[+|-] <digits>[<sep><digits>]... [scale word] <note>
//
// The amount does not have to open the message ("kofe 20 000"), but a sign is
// only recognised as the first non-space character. Scale words ("ming",
// "mln", ...) are detected anywhere in the text as whole words and are removed
// from the note only when they directly follow the amount.
package parser

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"hisob/internal/core"
)

// SignPolicy decides the sign of an input that carries no explicit +/-.
type SignPolicy string

const (
	// SignPolicyExpense treats every unsigned input as an expense.
	SignPolicyExpense SignPolicy = "expense"
	// SignPolicyVerbs looks for receipt or purchase verbs in the text and
	// falls back to expense when none is found.
	SignPolicyVerbs SignPolicy = "verbs"
)

// SignSource records where the sign of a candidate came from.
type SignSource string

const (
	SignExplicit SignSource = "explicit"
	SignVerb     SignSource = "verb"
	SignDefault  SignSource = "default"
)

const (
	thousand = 1_000
	million  = 1_000_000

	maxDigits = 18
)

var (
	ErrNoAmount       = errors.New("no amount found")
	ErrZeroAmount     = errors.New("amount is zero")
	ErrAmountTooLarge = errors.New("amount too large")
)

// ParseFailure is returned when a line cannot become a transaction.
type ParseFailure struct {
	Input  string
	Reason error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Input, e.Reason)
}

func (e *ParseFailure) Unwrap() error { return e.Reason }

// Candidate is a parsed, not yet stored, transaction.
type Candidate struct {
	Amount     int64 // signed: positive income, negative expense
	Magnitude  int64 // digits as written, before scaling
	Scale      int64
	Note       string
	Category   core.Category
	SignSource SignSource
}

// Kind mirrors core.Transaction.Kind for candidates.
func (c Candidate) Kind() core.Kind {
	if c.Amount > 0 {
		return core.KindIncome
	}
	return core.KindExpense
}

// Classifier assigns a category to a note.
type Classifier interface {
	Classify(note string) core.Category
}

type Parser struct {
	policy     SignPolicy
	classifier Classifier
}

type Option func(*Parser)

func WithSignPolicy(p SignPolicy) Option {
	return func(pr *Parser) { pr.policy = p }
}

func WithClassifier(c Classifier) Option {
	return func(pr *Parser) { pr.classifier = c }
}

// New returns a parser using SignPolicyExpense unless configured otherwise.
// Without a classifier every candidate is labelled core.CategoryOther.
func New(opts ...Option) *Parser {
	p := &Parser{policy: SignPolicyExpense}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseSignPolicy validates a policy name from configuration.
func ParseSignPolicy(s string) (SignPolicy, error) {
	switch SignPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SignPolicyExpense:
		return SignPolicyExpense, nil
	case SignPolicyVerbs:
		return SignPolicyVerbs, nil
	default:
		return "", fmt.Errorf("unknown sign policy %q: must be %q or %q", s, SignPolicyExpense, SignPolicyVerbs)
	}
}

// Parse extracts a signed amount and note from text.
//
// Examples (default policy):
//
//	"+1000 rent"            -> +1000, "rent"
//	"-20000 kofe"           -> -20000, "kofe"
//	"8 minga salfetka oldim" -> -8000, "salfetka oldim"
//	"+2 mln salary"         -> +2000000, "salary"
func (p *Parser) Parse(text string) (Candidate, error) {
	orig := strings.TrimSpace(text)

	sign, body := splitSign(orig)

	start, end, digits := findAmount(body)
	if start < 0 {
		return Candidate{}, &ParseFailure{Input: text, Reason: ErrNoAmount}
	}
	if len(strings.TrimLeft(digits, "0")) > maxDigits {
		return Candidate{}, &ParseFailure{Input: text, Reason: ErrAmountTooLarge}
	}
	magnitude, err := parseDigits(digits)
	if err != nil {
		return Candidate{}, &ParseFailure{Input: text, Reason: err}
	}
	if magnitude == 0 {
		return Candidate{}, &ParseFailure{Input: text, Reason: ErrZeroAmount}
	}

	words := tokenize(body)
	scale := int64(1)
	if containsAny(words, thousandWords) {
		scale = thousand
	}
	if containsAny(words, millionWords) {
		scale = million
	}
	if magnitude > core.MaxAmount/scale {
		return Candidate{}, &ParseFailure{Input: text, Reason: ErrAmountTooLarge}
	}

	before := strings.TrimSpace(body[:start])
	after := stripLeadingScaleWord(body[end:])
	note := joinNote(before, after)

	factor, source := p.resolveSign(sign, words)

	c := Candidate{
		Amount:     factor * magnitude * scale,
		Magnitude:  magnitude,
		Scale:      scale,
		Note:       note,
		Category:   core.CategoryOther,
		SignSource: source,
	}
	if p.classifier != nil {
		c.Category = p.classifier.Classify(note)
	}
	return c, nil
}

func (p *Parser) resolveSign(sign rune, words []string) (int64, SignSource) {
	switch sign {
	case '+':
		return 1, SignExplicit
	case '-':
		return -1, SignExplicit
	}
	if p.policy == SignPolicyVerbs {
		if containsAny(words, purchaseVerbs) {
			return -1, SignVerb
		}
		if containsAny(words, receiptVerbs) {
			return 1, SignVerb
		}
	}
	return -1, SignDefault
}

// splitSign strips a leading sign token. The Unicode minus and dashes count as '-'.
func splitSign(s string) (rune, string) {
	for _, prefix := range []string{"+", "-", "−", "–", "—"} {
		if strings.HasPrefix(s, prefix) {
			sign := '-'
			if prefix == "+" {
				sign = '+'
			}
			return sign, strings.TrimSpace(s[len(prefix):])
		}
	}
	return 0, s
}

// findAmount locates the first digit run in s and returns its byte span and
// the digits with separators removed. A run continues across a single space,
// comma or dot placed between two digits, so "1 50 000" and "1.5" are one run.
func findAmount(s string) (start, end int, digits string) {
	start = strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return -1, -1, ""
	}
	var b strings.Builder
	i := start
	for i < len(s) {
		switch {
		case isASCIIDigit(s[i]):
			b.WriteByte(s[i])
			i++
		case isSeparator(s[i]) && i+1 < len(s) && isASCIIDigit(s[i+1]):
			i++
		default:
			return start, i, b.String()
		}
	}
	return start, i, b.String()
}

func parseDigits(digits string) (int64, error) {
	var n int64
	for i := 0; i < len(digits); i++ {
		d := int64(digits[i] - '0')
		if n > (math.MaxInt64-d)/10 {
			return 0, ErrAmountTooLarge
		}
		n = n*10 + d
	}
	return n, nil
}

// stripLeadingScaleWord removes a scale word that directly follows the amount.
func stripLeadingScaleWord(rest string) string {
	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	end := strings.IndexFunc(trimmed, func(r rune) bool { return !isWordRune(r) })
	if end < 0 {
		end = len(trimmed)
	}
	word := strings.ToLower(trimmed[:end])
	if word != "" && (thousandWords[word] || millionWords[word]) {
		return strings.TrimSpace(trimmed[end:])
	}
	return strings.TrimSpace(rest)
}

func joinNote(before, after string) string {
	switch {
	case before == "":
		return after
	case after == "":
		return before
	default:
		return before + " " + after
	}
}

// tokenize lowercases s and splits it into whole words so keyword lookups
// cannot match inside longer words. Apostrophes stay inside words ("to'ladim").
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return !isWordRune(r) })
}

func containsAny(words []string, set map[string]bool) bool {
	for _, w := range words {
		if set[w] {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || r == '\'' || r == '‘' || r == '’' || r == 'ʻ' || r == 'ʼ'
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }

func isSeparator(b byte) bool { return b == ' ' || b == ',' || b == '.' }
