package vocabulary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabulary_CodeIn(t *testing.T) {
	v := Default()

	tests := []struct {
		text string
		want string
	}{
		{"quote for cons001 please", "CONS001"},
		{"LAB003 and LAB001", "LAB001"},
		{"code XLAB0011 is not a code", ""},
		{"nothing here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, v.CodeIn(tt.text))
		})
	}
}

func TestVocabulary_CodeForPhrase(t *testing.T) {
	v := Default()

	tests := []struct {
		text string
		want string
	}{
		{"what about the cost for a colonoscopy", "ENDO001"},
		{"price of an abdominal x-ray", "XRAY002"},
		{"a chest x-ray", "XRAY001"},
		{"just an x-ray", "XRAY001"},
		{"flu shot for Kevin", "VACC001"},
		{"an echocardiogram", "CARD002"},
		{"echoing nothing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, v.CodeForPhrase(tt.text))
		})
	}
}

func TestVocabulary_DoctorMentions(t *testing.T) {
	v := Default()

	got := v.DoctorMentions("Dr. Robert Brown referred to Sarah Johnson, then robert brown again")
	require.Len(t, got, 2)

	byName := map[string]int{}
	for _, m := range got {
		byName[m.Value] = m.Pos
	}
	assert.Contains(t, byName, "Sarah Johnson")
	assert.Greater(t, byName["Robert Brown"], byName["Sarah Johnson"])
}

func TestVocabulary_ProcedureMentions_LongestPhraseWins(t *testing.T) {
	v := Default()

	got := v.ProcedureMentions("she had an abdominal x-ray")
	require.Len(t, got, 1)
	assert.Equal(t, "XRAY002", got[0].Value)
}

func TestVocabulary_Lookup(t *testing.T) {
	v := Default()

	assert.Equal(t, "Colonoscopy", v.ProcedureName("endo001"))
	assert.Equal(t, "", v.ProcedureName("NOPE001"))
	assert.Len(t, v.Doctors(), 16)
	assert.Len(t, v.Codes(), 20)
}
