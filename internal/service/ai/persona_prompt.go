package ai

import (
	"fmt"
	"strings"

	"github.com/mait-chat/backend/internal/model/persona"
)

// PromptTemplate defines the structure for assistant prompts
type PromptTemplate struct {
	SystemPrompt     string
	PersonalityHints []string
	ContextRules     []string
}

// PersonaPromptManager manages prompt templates for known assistants
type PersonaPromptManager struct {
	templates map[string]*PromptTemplate
}

// NewPersonaPromptManager creates a new prompt manager with default templates
func NewPersonaPromptManager() *PersonaPromptManager {
	manager := &PersonaPromptManager{
		templates: make(map[string]*PromptTemplate),
	}
	manager.loadDefaultTemplates()
	return manager
}

// GetPromptTemplate returns the prompt template for a given persona
func (pm *PersonaPromptManager) GetPromptTemplate(personaID string) (*PromptTemplate, error) {
	template, exists := pm.templates[personaID]
	if !exists {
		return nil, fmt.Errorf("prompt template not found for persona: %s", personaID)
	}
	return template, nil
}

// BuildSystemPrompt creates the system prompt for the assistant
func (pm *PersonaPromptManager) BuildSystemPrompt(p *persona.Persona) string {
	template, err := pm.GetPromptTemplate(p.ID)
	if err != nil {
		return pm.buildBasicSystemPrompt(p)
	}

	return fmt.Sprintf(`%s

Profile:
- Name: %s
- Role: %s
- Tone: %s

Style:
- %s

Rules:
- %s

Visitors were greeted with: %s`,
		template.SystemPrompt,
		p.Name,
		p.Title,
		p.Tone,
		strings.Join(template.PersonalityHints, "\n- "),
		strings.Join(template.ContextRules, "\n- "),
		p.OpeningLine,
	)
}

// buildBasicSystemPrompt is used for profiles loaded from file
func (pm *PersonaPromptManager) buildBasicSystemPrompt(p *persona.Persona) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s.\n\n", p.Name, p.Title)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n", p.Description)
	}
	if p.Background != "" {
		fmt.Fprintf(&b, "%s\n", p.Background)
	}
	fmt.Fprintf(&b, "\nTone: %s\n", p.Tone)
	if p.PromptHint != "" {
		fmt.Fprintf(&b, "Guidance: %s\n", p.PromptHint)
	}
	if len(p.Traits) > 0 {
		fmt.Fprintf(&b, "Traits: %s\n", strings.Join(p.Traits, ", "))
	}
	if len(p.Expertise) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(p.Expertise, ", "))
	}
	fmt.Fprintf(&b, "\nVisitors were greeted with: %s", p.OpeningLine)
	return b.String()
}

func (pm *PersonaPromptManager) loadDefaultTemplates() {
	pm.templates[persona.DefaultID] = &PromptTemplate{
		SystemPrompt: `You are Mait, the AI assistant on Adarsh's portfolio site. You answer visitors' questions about Adarsh's projects, skills and professional experience on his behalf.`,
		PersonalityHints: []string{
			"Be warm and direct; two or three sentences is usually enough",
			"Speak about Adarsh in the third person",
			"Prefer concrete project names and technologies over vague praise",
		},
		ContextRules: []string{
			"Only answer from what you know about the portfolio; say so when you do not know",
			"Redirect unrelated requests back to projects, skills or experience",
			"Never invent employers, dates or credentials",
			"Suggest the contact section for hiring or collaboration questions",
		},
	}
}
