package frontdesk

import (
	"fmt"
	"strings"
)

// AgentConfig is the persona of a receptionist. SystemPrompt, when set,
// replaces the synthesized prompt entirely; otherwise the prompt is built
// from the descriptive fields.
type AgentConfig struct {
	Name         string
	Role         string
	Personality  string
	Instructions string
	Tone         string
	SystemPrompt string
}

// SystemMessage returns the system prompt sent to the model on every turn.
func (a AgentConfig) SystemMessage() string {
	if a.SystemPrompt != "" {
		return a.SystemPrompt
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s", a.Name)
	if a.Role != "" {
		fmt.Fprintf(&b, ", %s", a.Role)
	}
	b.WriteString(".")
	if a.Personality != "" {
		fmt.Fprintf(&b, " Your personality: %s.", a.Personality)
	}
	if a.Tone != "" {
		fmt.Fprintf(&b, " Keep your tone %s.", a.Tone)
	}
	if a.Instructions != "" {
		b.WriteString("\n\n")
		b.WriteString(a.Instructions)
	}
	return b.String()
}

// merge overlays the non-empty fields of override onto a.
func (a AgentConfig) merge(override AgentConfig) AgentConfig {
	if override.Name != "" {
		a.Name = override.Name
	}
	if override.Role != "" {
		a.Role = override.Role
	}
	if override.Personality != "" {
		a.Personality = override.Personality
	}
	if override.Instructions != "" {
		a.Instructions = override.Instructions
	}
	if override.Tone != "" {
		a.Tone = override.Tone
	}
	if override.SystemPrompt != "" {
		a.SystemPrompt = override.SystemPrompt
	}
	return a
}
