package persona

// Persona captures the assistant identity shown in the chat widget.
type Persona struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Title       string   `json:"title" yaml:"title"`
	Tone        string   `json:"tone" yaml:"tone"`
	PromptHint  string   `json:"promptHint" yaml:"prompt_hint"`
	OpeningLine string   `json:"openingLine" yaml:"opening_line"`
	Placeholder string   `json:"placeholder,omitempty" yaml:"placeholder"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Background  string   `json:"background,omitempty" yaml:"background"`
	Traits      []string `json:"traits,omitempty" yaml:"traits"`
	Expertise   []string `json:"expertise,omitempty" yaml:"expertise"`
}

// DefaultID identifies the built-in assistant.
const DefaultID = "mait"

// Seed provides the built-in portfolio assistant.
func Seed() []Persona {
	return []Persona{
		{
			ID:          DefaultID,
			Name:        "Mait",
			Title:       "Adarsh's AI assistant",
			Tone:        "friendly, concise, professional",
			PromptHint:  "Answer questions about Adarsh's projects, skills and experience. Keep replies short and point visitors to the portfolio sections when useful.",
			OpeningLine: "Hi, I'm Mait, Adarsh's AI assistant. I can tell you about his projects, skills, and experience. How can I help you today?",
			Placeholder: "Ask about projects, skills, or experience...",
			Description: "A portfolio assistant embedded in Adarsh's landing page.",
			Background:  "Mait knows the portfolio content and speaks on Adarsh's behalf to recruiters and visitors.",
			Traits:      []string{"helpful", "honest", "brief"},
			Expertise:   []string{"projects", "skills", "experience"},
		},
	}
}
