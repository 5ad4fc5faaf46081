// Package conversation reads recent entities and intents out of a bounded
// window of conversation history.
package conversation

import (
	"sort"

	"procedure-assistant/internal/intent/vocabulary"
	"procedure-assistant/internal/models"
)

// DefaultWindow is the number of most recent turns examined.
const DefaultWindow = 6

// Entities lists names and codes most recent first, without duplicates.
type Entities struct {
	Names []string `json:"names"`
	Codes []string `json:"codes"`
}

// Tracker is stateless; history is passed in on every call.
type Tracker struct {
	vocab  *vocabulary.Vocabulary
	window int
}

func NewTracker(vocab *vocabulary.Vocabulary, window int) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{vocab: vocab, window: window}
}

// Window returns the last n turns of history.
func Window(history []models.ConversationTurn, n int) []models.ConversationTurn {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// RecentEntities scans the window newest turn first. Within a turn the
// structured params come before mentions in the text, and later mentions
// come before earlier ones.
func (t *Tracker) RecentEntities(history []models.ConversationTurn) Entities {
	turns := Window(history, t.window)

	names := newOrderedSet()
	codes := newOrderedSet()

	for i := len(turns) - 1; i >= 0; i-- {
		turn := turns[i]
		if p := turn.ExtractedParams; p != nil {
			names.add(p.DoctorName)
			codes.add(p.ProcedureCode)
		}
		if t.vocab == nil || turn.Content == "" {
			continue
		}
		for _, m := range newestFirst(t.vocab.DoctorMentions(turn.Content)) {
			names.add(m.Value)
		}
		for _, m := range newestFirst(t.vocab.ProcedureMentions(turn.Content)) {
			codes.add(m.Value)
		}
	}

	return Entities{Names: names.items, Codes: codes.items}
}

// MostRecentName is the first entry of RecentEntities().Names, or "".
func (t *Tracker) MostRecentName(history []models.ConversationTurn) string {
	if e := t.RecentEntities(history); len(e.Names) > 0 {
		return e.Names[0]
	}
	return ""
}

// MostRecentCode is the first entry of RecentEntities().Codes, or "".
func (t *Tracker) MostRecentCode(history []models.ConversationTurn) string {
	if e := t.RecentEntities(history); len(e.Codes) > 0 {
		return e.Codes[0]
	}
	return ""
}

// LastIntent returns the newest intent recorded in the window.
func (t *Tracker) LastIntent(history []models.ConversationTurn) models.Intent {
	turns := Window(history, t.window)
	for i := len(turns) - 1; i >= 0; i-- {
		if p := turns[i].ExtractedParams; p != nil && p.Intent != models.IntentNone {
			return p.Intent
		}
	}
	return models.IntentNone
}

func newestFirst(ms []vocabulary.Mention) []vocabulary.Mention {
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Pos > ms[j].Pos })
	return ms
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: []string{}}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
