package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleScenarioS6(t *testing.T) {
	assert.Equal(t, "Epic Stream", Title("  Epic   <Stream> \U0001F3AE  "))
	assert.Equal(t, untitled, Title("\U0001F3AE\U0001F3AE"))
	assert.Equal(t, 100, len([]rune(Title(strings.Repeat("A", 150)))))
}

func TestTitleIdempotent(t *testing.T) {
	inputs := []string{
		"  Epic   <Stream> \U0001F3AE  ",
		"\U0001F3AE\U0001F3AE",
		strings.Repeat("A", 150),
		"plain title",
		"",
		"   ",
		"Café Résumé", // Latin-1 Supplement should survive
	}
	for _, in := range inputs {
		once := Title(in)
		twice := Title(once)
		assert.Equal(t, once, twice, "sanitize(sanitize(%q)) should equal sanitize(%q)", in, in)
		assert.LessOrEqual(t, len([]rune(once)), maxTitleLength)
	}
}

func TestTitleEmptyAndWhitespaceSubstituted(t *testing.T) {
	assert.Equal(t, untitled, Title(""))
	assert.Equal(t, untitled, Title("   \t\n  "))
}

func TestTitlePreservesLatin1Supplement(t *testing.T) {
	assert.Equal(t, "Café Résumé", Title("Café Résumé"))
}
