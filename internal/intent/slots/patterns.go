package slots

import (
	"regexp"

	"procedure-assistant/internal/models"
)

type intentPattern struct {
	intent   models.Intent
	patterns []*regexp.Regexp
}

// intentPatterns are checked in order; the first intent with a matching
// phrase wins.
var intentPatterns = []intentPattern{
	{
		intent: models.IntentShowHistory,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bhistory\b`),
			regexp.MustCompile(`\b(past|previous|prior|recent) procedures?\b`),
			regexp.MustCompile(`\bprocedures? (records?|log)\b`),
			regexp.MustCompile(`\b(show|list|display)( me)?( all)?( the)? procedures\b`),
			regexp.MustCompile(`\bwhat (procedures|has)\b.*\b(done|performed)\b`),
		},
	},
	{
		intent: models.IntentGetQuote,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bquotes?\b`),
			regexp.MustCompile(`\bestimates?\b`),
			regexp.MustCompile(`\bhow much\b`),
			regexp.MustCompile(`\bpric(e|es|ing)\b`),
			regexp.MustCompile(`\b(average|median|typical|expected) (cost|price)\b`),
			regexp.MustCompile(`\bwhat (does|would|will)\b.*\bcost\b`),
		},
	},
	{
		intent: models.IntentAddProcedure,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\badd\b`),
			regexp.MustCompile(`\brecord\b`),
			regexp.MustCompile(`\blog\b`),
			regexp.MustCompile(`\bbill(ed)?\b`),
			regexp.MustCompile(`\bperformed\b`),
			regexp.MustCompile(`\bnew procedure\b`),
			regexp.MustCompile(`\bregister\b`),
		},
	},
}

// carryPatterns reuse the previous turn's intent.
var carryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bwhat about\b`),
	regexp.MustCompile(`\bhow about\b`),
	regexp.MustCompile(`\band\b`),
	regexp.MustCompile(`\balso\b`),
}

var doctorAnaphora = []*regexp.Regexp{
	regexp.MustCompile(`\b(that|this|same|the) (doctor|physician|provider|dr\.?)\b`),
	regexp.MustCompile(`\b(her|his|him|she|he|they|them|their)\b`),
}

var procedureAnaphora = []*regexp.Regexp{
	regexp.MustCompile(`\b(that|this|same|the) (procedure|one|treatment|service)\b`),
	regexp.MustCompile(`\bit\b`),
}

// codePattern is applied to uppercased text.
var codePattern = regexp.MustCompile(`\b[A-Z]{3,4}[0-9]{3}\b`)

var wordSplit = regexp.MustCompile(`[^\p{L}\p{N}'-]+`)

// stopWords never take part in loose name matching.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "what": {}, "about": {},
	"show": {}, "history": {}, "quote": {}, "cost": {}, "costs": {}, "get": {},
	"procedure": {}, "procedures": {}, "doctor": {}, "add": {}, "record": {},
	"how": {}, "much": {}, "does": {}, "that": {}, "this": {}, "same": {},
	"her": {}, "his": {}, "him": {}, "they": {}, "them": {}, "their": {},
	"please": {}, "can": {}, "you": {}, "give": {}, "me": {}, "price": {},
	"also": {}, "from": {}, "was": {}, "were": {}, "did": {}, "done": {},
	"performed": {}, "estimate": {}, "code": {}, "dr": {}, "dr.": {}, "all": {},
	"list": {}, "past": {}, "previous": {}, "recent": {}, "new": {}, "today": {},
	"yesterday": {}, "log": {}, "bill": {}, "visit": {}, "patient": {},
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
