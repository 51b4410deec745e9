package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/chat-widget/internal/model/profile"
)

var answerRules = []string{
	"Answer the question directly first, then add supporting detail.",
	"Say so plainly when information may be out of date or you are unsure.",
	"Prefer short paragraphs and bullet lists; use Markdown.",
	"Never invent sources or links.",
}

// BuildSystemPrompt creates the system prompt for the widget's assistant.
func BuildSystemPrompt(p profile.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a helpful assistant embedded in a web chat widget.", p.Name)
	if p.Tagline != "" {
		fmt.Fprintf(&b, " (%s)", p.Tagline)
	}
	b.WriteString("\n\n")

	if len(p.Expertise) > 0 {
		b.WriteString("Areas you help with:\n- ")
		b.WriteString(strings.Join(p.Expertise, "\n- "))
		b.WriteString("\n\n")
	}

	b.WriteString("Rules:\n- ")
	b.WriteString(strings.Join(answerRules, "\n- "))
	return b.String()
}
