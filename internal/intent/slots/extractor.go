// Package slots derives an intent and entity slots from request text and the
// recent conversation.
package slots

import (
	"regexp"
	"sort"
	"strings"

	"procedure-assistant/internal/intent/conversation"
	"procedure-assistant/internal/intent/namematch"
	"procedure-assistant/internal/intent/vocabulary"
	"procedure-assistant/internal/models"
)

// fuzzyThreshold applies to word pairs cut out of free text.
const fuzzyThreshold = 0.75

// Source records where a slot value came from.
type Source string

const (
	SourceNone    Source = ""
	SourceText    Source = "text"
	SourceContext Source = "context"
	SourceFuzzy   Source = "fuzzy"
)

// Provenance describes how each slot was filled.
type Provenance struct {
	Intent        Source `json:"intent,omitempty"`
	DoctorName    Source `json:"doctorName,omitempty"`
	ProcedureCode Source `json:"procedureCode,omitempty"`
}

// Extractor holds only read-only collaborators, so one value can serve all requests.
type Extractor struct {
	vocab   *vocabulary.Vocabulary
	tracker *conversation.Tracker
	first   []*regexp.Regexp
	last    []*regexp.Regexp
	parts   [][2]string
}

func NewExtractor(vocab *vocabulary.Vocabulary, tracker *conversation.Tracker) *Extractor {
	e := &Extractor{vocab: vocab, tracker: tracker}
	for _, name := range vocab.Doctors() {
		first, last := splitName(name)
		e.parts = append(e.parts, [2]string{first, last})
		e.first = append(e.first, namePartPattern(first))
		e.last = append(e.last, namePartPattern(last))
	}
	return e
}

// Extract derives slots from text and history. It has no side effects and
// returns identical output for identical input.
func (e *Extractor) Extract(text string, history []models.ConversationTurn) models.Slots {
	s, _ := e.ExtractWithCandidates(text, history, nil)
	return s
}

// ExtractWithCandidates also fuzzy-matches word pairs of text against
// candidates (typically the stored doctor names) when nothing else finds a name.
func (e *Extractor) ExtractWithCandidates(text string, history []models.ConversationTurn, candidates []string) (models.Slots, Provenance) {
	lower := strings.ToLower(text)
	var prov Provenance

	carried := false
	intent := e.classify(lower)
	if intent != models.IntentNone {
		prov.Intent = SourceText
	} else if matchesAny(carryPatterns, lower) {
		if prior := e.tracker.LastIntent(history); prior != models.IntentNone {
			intent = prior
			prov.Intent = SourceContext
			carried = true
		}
	}

	doctor, src := e.doctorName(text, lower, history, candidates)
	if doctor == "" && carried {
		// "what about a colonoscopy" keeps talking about the same doctor
		if name := e.tracker.MostRecentName(history); name != "" {
			doctor, src = name, SourceContext
		}
	}
	prov.DoctorName = src

	code, src := e.procedureCode(text, lower, history)
	prov.ProcedureCode = src

	slots := models.Slots{
		Intent:        intent,
		DoctorName:    doctor,
		ProcedureCode: code,
	}
	slots.EnhancedPrompt = e.enhancedPrompt(text, slots, prov)
	return slots, prov
}

func (e *Extractor) classify(lower string) models.Intent {
	for _, ip := range intentPatterns {
		if matchesAny(ip.patterns, lower) {
			return ip.intent
		}
	}
	return models.IntentNone
}

func (e *Extractor) doctorName(text, lower string, history []models.ConversationTurn, candidates []string) (string, Source) {
	doctors := e.vocab.Doctors()

	for _, name := range doctors {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name, SourceText
		}
	}
	// stored names outside the vocabulary still count when spelled out in full
	for _, name := range sortedCopy(candidates) {
		if n := namematch.Normalize(name); n != "" && strings.Contains(lower, n) {
			return name, SourceText
		}
	}
	for i, name := range doctors {
		if e.parts[i][0] != "" && e.first[i].MatchString(lower) {
			return name, SourceText
		}
	}
	for i, name := range doctors {
		if e.parts[i][1] != "" && e.last[i].MatchString(lower) {
			return name, SourceText
		}
	}

	if matchesAny(doctorAnaphora, lower) {
		if name := e.tracker.MostRecentName(history); name != "" {
			return name, SourceContext
		}
	}

	words := significantWords(lower)
	for _, w := range words {
		for i, name := range doctors {
			first, last := e.parts[i][0], e.parts[i][1]
			if partialMatch(w, first) || partialMatch(w, last) {
				return name, SourceText
			}
		}
	}

	if len(candidates) > 0 {
		if name := fuzzyName(text, candidates); name != "" {
			return name, SourceFuzzy
		}
	}
	return "", SourceNone
}

func (e *Extractor) procedureCode(text, lower string, history []models.ConversationTurn) (string, Source) {
	if code := e.vocab.CodeIn(text); code != "" {
		return code, SourceText
	}
	if code := e.vocab.CodeForPhrase(lower); code != "" {
		return code, SourceText
	}
	if code := codePattern.FindString(strings.ToUpper(text)); code != "" {
		return code, SourceText
	}
	if matchesAny(procedureAnaphora, lower) {
		if code := e.tracker.MostRecentCode(history); code != "" {
			return code, SourceContext
		}
	}
	return "", SourceNone
}

// partialMatch accepts a word that is a prefix of a name part ("sara" for
// "sarah"). Longer words that merely start with a part ("marked") are rejected.
func partialMatch(word, part string) bool {
	if part == "" || len(word) <= 2 {
		return false
	}
	return strings.HasPrefix(part, word)
}

func significantWords(lower string) []string {
	var out []string
	for _, w := range wordSplit.Split(lower, -1) {
		w = strings.Trim(w, "'-")
		w = strings.TrimSuffix(w, "'s")
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

// fuzzyName tries adjacent word pairs against candidates.
func fuzzyName(text string, candidates []string) string {
	words := wordSplit.Split(strings.TrimSpace(text), -1)
	for i := 0; i+1 < len(words); i++ {
		pair := words[i] + " " + words[i+1]
		if res := namematch.Match(pair, candidates, fuzzyThreshold); res.Found() {
			return res.MatchedName
		}
	}
	return ""
}

// namePartPattern matches one lowercased name part as a whole word.
func namePartPattern(part string) *regexp.Regexp {
	if part == "" {
		return regexp.MustCompile(`$^`)
	}
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(part) + `\b`)
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func splitName(name string) (first, last string) {
	fields := strings.Fields(strings.ToLower(name))
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], fields[len(fields)-1]
	}
}
