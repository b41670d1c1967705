package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirective(t *testing.T) {
	cases := []struct {
		line string
		want Directive
	}{
		{"", DirectiveEmpty},
		{"   ", DirectiveEmpty},
		{"@exit", DirectiveExit},
		{"  @QUIT ", DirectiveExit},
		{"@history", DirectiveHistory},
		{"/memory", DirectiveMemory},
		{"/Memory", DirectiveMemory},
		{"/clear", DirectiveClear},
		{"@foo", DirectiveInvalid},
		{"@", DirectiveInvalid},
		{"what is /memory for?", DirectiveNone},
		{"/tmp is a directory", DirectiveNone},
		{"hello", DirectiveNone},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ParseDirective(c.line), "line %q", c.line)
	}
}
