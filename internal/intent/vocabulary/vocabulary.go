// Package vocabulary holds the reference doctor names and procedure codes the
// slot extractor and context tracker scan free text for.
package vocabulary

import (
	"regexp"
	"sort"
	"strings"
)

type Procedure struct {
	Code    string
	Name    string
	Aliases []string
}

// Vocabulary is read-only after construction and safe to share.
type Vocabulary struct {
	doctors    []string
	procedures []Procedure
	phrases    []phrase
	byCode     map[string]Procedure
	codePats   map[string]*regexp.Regexp
	namePats   []*regexp.Regexp
}

type phrase struct {
	text string
	code string
	pat  *regexp.Regexp
}

// Mention is a vocabulary term found in text at byte offset Pos.
type Mention struct {
	Value string
	Pos   int
}

// New builds a vocabulary. Scan order follows the order of doctors and procedures.
func New(doctors []string, procedures []Procedure) *Vocabulary {
	v := &Vocabulary{
		doctors:    append([]string(nil), doctors...),
		procedures: append([]Procedure(nil), procedures...),
		byCode:     make(map[string]Procedure, len(procedures)),
		codePats:   make(map[string]*regexp.Regexp, len(procedures)),
	}

	for _, d := range v.doctors {
		v.namePats = append(v.namePats, wordPattern(d))
	}

	for _, p := range v.procedures {
		code := strings.ToUpper(p.Code)
		v.byCode[code] = p
		v.codePats[code] = regexp.MustCompile(`\b` + regexp.QuoteMeta(code) + `\b`)
		if p.Name != "" {
			v.phrases = append(v.phrases, newPhrase(p.Name, code))
		}
		for _, a := range p.Aliases {
			v.phrases = append(v.phrases, newPhrase(a, code))
		}
	}
	// longer phrases first so "abdominal x-ray" wins over "x-ray"
	sort.SliceStable(v.phrases, func(i, j int) bool {
		return len(v.phrases[i].text) > len(v.phrases[j].text)
	})
	return v
}

func newPhrase(text, code string) phrase {
	t := strings.ToLower(strings.TrimSpace(text))
	return phrase{text: t, code: code, pat: wordPattern(t)}
}

// wordPattern matches s case-insensitively on word boundaries.
func wordPattern(s string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])` + regexp.QuoteMeta(s) + `($|[^\p{L}\p{N}])`)
}

func (v *Vocabulary) Doctors() []string {
	return append([]string(nil), v.doctors...)
}

func (v *Vocabulary) Procedures() []Procedure {
	return append([]Procedure(nil), v.procedures...)
}

// Codes returns procedure codes in vocabulary order.
func (v *Vocabulary) Codes() []string {
	out := make([]string, 0, len(v.procedures))
	for _, p := range v.procedures {
		out = append(out, strings.ToUpper(p.Code))
	}
	return out
}

// Procedure looks up a code case-insensitively.
func (v *Vocabulary) Procedure(code string) (Procedure, bool) {
	p, ok := v.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return p, ok
}

// ProcedureName returns the display name for code, or "" when unknown.
func (v *Vocabulary) ProcedureName(code string) string {
	p, _ := v.Procedure(code)
	return p.Name
}

// CodeIn returns the first vocabulary code present in text as a whole word.
func (v *Vocabulary) CodeIn(text string) string {
	upper := strings.ToUpper(text)
	for _, code := range v.Codes() {
		if v.codePats[code].MatchString(upper) {
			return code
		}
	}
	return ""
}

// CodeForPhrase returns the code whose name or alias appears in text.
func (v *Vocabulary) CodeForPhrase(text string) string {
	for _, p := range v.phrases {
		if p.pat.MatchString(text) {
			return p.code
		}
	}
	return ""
}

// DoctorMentions returns every full doctor name in text with its last position.
func (v *Vocabulary) DoctorMentions(text string) []Mention {
	var out []Mention
	for i, pat := range v.namePats {
		if pos := lastIndex(pat, text); pos >= 0 {
			out = append(out, Mention{Value: v.doctors[i], Pos: pos})
		}
	}
	return out
}

// ProcedureMentions returns codes referenced in text by code, name or alias.
func (v *Vocabulary) ProcedureMentions(text string) []Mention {
	upper := strings.ToUpper(text)
	seen := make(map[string]int)
	for _, code := range v.Codes() {
		if pos := lastIndex(v.codePats[code], upper); pos >= 0 {
			seen[code] = pos
		}
	}
	// matched spans are blanked so a shorter alias inside a longer name does not count twice
	work := []byte(text)
	for _, p := range v.phrases {
		locs := p.pat.FindAllIndex(work, -1)
		if len(locs) == 0 {
			continue
		}
		pos := locs[len(locs)-1][0]
		if prev, ok := seen[p.code]; !ok || pos > prev {
			seen[p.code] = pos
		}
		for _, loc := range locs {
			for i := loc[0]; i < loc[1]; i++ {
				work[i] = ' '
			}
		}
	}

	out := make([]Mention, 0, len(seen))
	for _, code := range v.Codes() {
		if pos, ok := seen[code]; ok {
			out = append(out, Mention{Value: code, Pos: pos})
		}
	}
	return out
}

func lastIndex(re *regexp.Regexp, text string) int {
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return -1
	}
	return locs[len(locs)-1][0]
}
