package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeForMarkdown(t *testing.T) {
	assert.Equal(t,
		"Deal done\\. Here we go\\! \\#announcement \\(exclusive\\)",
		EscapeForMarkdown("Deal done. Here we go! #announcement (exclusive)"),
	)
	assert.Equal(t, "plain text stays plain", EscapeForMarkdown("plain text stays plain"))
}
