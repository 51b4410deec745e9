package profile

// Profile captures the branding and copy the widget exposes to the frontend.
type Profile struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Tagline         string   `json:"tagline"`
	Greeting        string   `json:"greeting"`
	InputHint       string   `json:"inputHint"`
	SearchingLabel  string   `json:"searchingLabel"`
	Footer          string   `json:"footer"`
	FooterHighlight string   `json:"footerHighlight,omitempty"`
	Expertise       []string `json:"expertise,omitempty"` // topics the reference endpoint leans on
}

// Default provides the stock web-search assistant profile.
func Default() Profile {
	return Profile{
		ID:              "web-search-assistant",
		Name:            "Atos AI Assistant",
		Tagline:         "Powered by Web Search & AI",
		Greeting:        "Hello! I'm your Atos AI Assistant. I can help you search the web and answer your questions. What would you like to know today?",
		InputHint:       "Ask me anything... I'll search the web and provide you with comprehensive answers.",
		SearchingLabel:  "Searching and analyzing...",
		Footer:          "Powered by Atos AI • Web Search Enhanced •",
		FooterHighlight: "Always Learning",
		Expertise:       []string{"web search", "current events", "technology", "general knowledge"},
	}
}

// WithOverrides returns a copy with any non-empty values replaced.
func (p Profile) WithOverrides(name, tagline, greeting string) Profile {
	if name != "" {
		p.Name = name
	}
	if tagline != "" {
		p.Tagline = tagline
	}
	if greeting != "" {
		p.Greeting = greeting
	}
	p.Expertise = append([]string(nil), p.Expertise...)
	return p
}
