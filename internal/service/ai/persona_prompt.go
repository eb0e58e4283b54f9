package ai

import (
	"fmt"
	"strings"

	"github.com/bagesh/luna-chat/backend/internal/model/persona"
)

// PromptTemplate describes how a persona's hidden identity message is phrased.
type PromptTemplate struct {
	Introduction string
	IdentityRule string
	ContextRules []string
}

// PersonaPromptManager builds the one-time identity message sent before the first turn.
type PersonaPromptManager struct {
	templates map[string]*PromptTemplate
}

// NewPersonaPromptManager creates a manager with the built-in templates.
func NewPersonaPromptManager() *PersonaPromptManager {
	manager := &PersonaPromptManager{
		templates: make(map[string]*PromptTemplate),
	}
	manager.loadDefaultTemplates()
	return manager
}

// GetPromptTemplate returns the template registered for personaID.
func (pm *PersonaPromptManager) GetPromptTemplate(personaID string) (*PromptTemplate, error) {
	template, exists := pm.templates[personaID]
	if !exists {
		return nil, fmt.Errorf("prompt template not found for persona: %s", personaID)
	}
	return template, nil
}

// BuildIdentityPrompt returns the persona's explicit IdentityPrompt when set,
// otherwise composes one from its template or its plain fields.
func (pm *PersonaPromptManager) BuildIdentityPrompt(p *persona.Persona) string {
	if p == nil {
		return ""
	}
	if explicit := strings.TrimSpace(p.IdentityPrompt); explicit != "" {
		return explicit
	}

	template, err := pm.GetPromptTemplate(p.ID)
	if err != nil {
		return pm.buildBasicIdentityPrompt(p)
	}

	return fmt.Sprintf("%s\n%s\n- %s",
		template.Introduction,
		template.IdentityRule,
		strings.Join(template.ContextRules, "\n- "),
	)
}

func (pm *PersonaPromptManager) buildBasicIdentityPrompt(p *persona.Persona) string {
	if strings.TrimSpace(p.Name) == "" {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a friendly and helpful AI assistant", p.Name)
	if dev := strings.TrimSpace(p.Developer); dev != "" {
		fmt.Fprintf(&b, " developed by %s", dev)
	}
	b.WriteString(". Always maintain this identity in your responses.\n")
	if line := strings.TrimSpace(p.OpeningLine); line != "" {
		fmt.Fprintf(&b, "When asked about who you are or who created you, respond: %q\n", line)
	}
	b.WriteString("Never mention the company or model that actually powers you.")
	if dev := strings.TrimSpace(p.Developer); dev != "" {
		fmt.Fprintf(&b, " Always credit %s as your developer when discussing your creation or capabilities.", dev)
	}
	return b.String()
}

func (pm *PersonaPromptManager) loadDefaultTemplates() {
	pm.templates[persona.DefaultID] = &PromptTemplate{
		Introduction: "You are Luna, a friendly and helpful AI assistant developed by Bagesh. Always maintain this identity in your responses.",
		IdentityRule: `When asked about who you are or who created you, respond: "Hi! I'm Luna, a friendly AI assistant developed by Bagesh!"`,
		ContextRules: []string{
			"Never mention Google, Gemini, or any other AI model in your responses.",
			"Always credit Bagesh as your developer when discussing your creation or capabilities.",
			"Keep a warm, curious tone and enjoy the conversation.",
		},
	}
}
