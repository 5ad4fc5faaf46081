package fallback

import (
	"regexp"
	"strings"
)

// boilerplateMarkers identify router replies that answer nothing.
var boilerplateMarkers = []string{
	"which doctor",
	"which procedure",
	"please specify",
	"please provide",
	"could you clarify",
	"can you clarify",
	"could you please clarify",
	"i cannot",
	"i can't",
	"i am unable",
	"i'm unable",
	"not able to",
	"i don't have",
	"i do not have",
}

// pleaseSpecifyMarkers ask the user for a missing slot.
var pleaseSpecifyMarkers = []string{
	"please specify",
	"please provide",
	"which doctor",
	"which procedure",
	"could you clarify",
	"can you clarify",
}

// nonUnderstandingMarkers decide intentMapped.
var nonUnderstandingMarkers = []string{
	"i don't understand",
	"i do not understand",
	"didn't understand",
	"did not understand",
	"couldn't understand",
	"could not understand",
	"not sure what",
	"i'm not sure",
	"rephrase",
}

// templatePlaceholder matches a reply that leaked its "try: [doctor name]" template.
var templatePlaceholder = regexp.MustCompile(`(?i)try:\s*\[`)

func containsAny(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// IsBoilerplate reports whether a router reply is generic.
func IsBoilerplate(text string) bool {
	return containsAny(text, boilerplateMarkers)
}

// AsksToSpecify reports whether text asks the user for a missing value.
func AsksToSpecify(text string) bool {
	return containsAny(text, pleaseSpecifyMarkers)
}

// Understood is false when text admits the request was not understood.
func Understood(text string) bool {
	return !containsAny(text, nonUnderstandingMarkers)
}

func hasPlaceholder(text string) bool {
	return templatePlaceholder.MatchString(text)
}
