// Package classify routes a raw chat query to one of four handling modes
// before any expensive capability is touched. Classification is pure string
// matching: deterministic, total, and free of side effects.
package classify

import (
	"regexp"
	"strings"
)

// Category is the handling mode assigned to a query.
type Category string

const (
	CategoryGreeting     Category = "GREETING"
	CategorySimpleAnswer Category = "SIMPLE_ANSWER"
	CategoryCalculation  Category = "CALCULATION"
	CategoryRetrieval    Category = "RETRIEVAL"
)

// ruleGroup couples a category with its alternative patterns (logical OR).
type ruleGroup struct {
	category Category
	patterns []*regexp.Regexp
}

// ruleGroups - ORDER MATTERS. Greetings are checked first: they are the most
// frequent queries and the cheapest to answer, and a query that opens with a
// greeting short-circuits here even when more content follows. Calculation
// runs before simple answers so "احسب 5+3" never gets eaten by small talk.
// Anything unmatched falls through to retrieval.
var ruleGroups = []ruleGroup{
	{
		category: CategoryGreeting,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(hello|hi|hey|howdy|greetings)\b`),
			regexp.MustCompile(`\bgood\s+(morning|afternoon|evening|day)\b`),
			regexp.MustCompile(`السلام\s+عليكم`),
			regexp.MustCompile(`سلام\s+عليكم`),
			// \b is ASCII-only in RE2, so Arabic word edges are spelled out.
			regexp.MustCompile(`^سلام($|\s)`),
			regexp.MustCompile(`مرحب`),
			regexp.MustCompile(`[اأ]هلا`),
			regexp.MustCompile(`صباح\s+(الخير|النور)`),
			regexp.MustCompile(`مساء\s+(الخير|النور)`),
			regexp.MustCompile(`حياك\s+الله`),
		},
	},
	{
		category: CategoryCalculation,
		patterns: []*regexp.Regexp{
			// Arithmetic expression, ASCII or Unicode operators, Western or
			// Arabic-Indic digits: "5 + 3", "٢٠ ÷ ٤", "7×8".
			regexp.MustCompile(`[0-9٠-٩]+([.,][0-9٠-٩]+)?\s*[+\-*/×÷]\s*-?[0-9٠-٩]+`),
			regexp.MustCompile(`\b(calculate|compute)\b`),
			regexp.MustCompile(`\bhow much is\b`),
			regexp.MustCompile(`\bsquare root of\b`),
			regexp.MustCompile(`احسب`),
			regexp.MustCompile(`كم\s+(يساوي|تساوي)`),
			regexp.MustCompile(`ما\s+(ناتج|حاصل)`),
			regexp.MustCompile(`حاصل\s+(ضرب|جمع|طرح|قسمة)`),
			regexp.MustCompile(`الجذر\s+التربيعي`),
		},
	},
	{
		category: CategorySimpleAnswer,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bwho are you\b`),
			regexp.MustCompile(`\bwhat('s| is) your name\b`),
			regexp.MustCompile(`\bhow are you\b`),
			regexp.MustCompile(`\bthank(s| you)\b`),
			regexp.MustCompile(`\b(bye|goodbye|see you)\b`),
			regexp.MustCompile(`\bwhat can you do\b`),
			regexp.MustCompile(`من\s+[اأ]نت`),
			regexp.MustCompile(`(ما|شو|وش)\s+اسمك`),
			regexp.MustCompile(`كيف\s+حالك`),
			regexp.MustCompile(`كيفك`),
			regexp.MustCompile(`[اإ]زيك`),
			regexp.MustCompile(`شكر`),
			regexp.MustCompile(`مع\s+السلامة`),
			regexp.MustCompile(`وداعا`),
			regexp.MustCompile(`ماذا\s+تستطيع\s+أن\s+تفعل`),
		},
	},
}

// Classify maps a query to its handling category. The query is trimmed and
// lower-cased first (a no-op for Arabic script, required for Latin). An empty
// query matches nothing and falls through to retrieval; that is the documented
// default, not an error. Classify never fails.
func Classify(query string) Category {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return CategoryRetrieval
	}

	for _, group := range ruleGroups {
		for _, pattern := range group.patterns {
			if pattern.MatchString(normalized) {
				return group.category
			}
		}
	}

	return CategoryRetrieval
}
