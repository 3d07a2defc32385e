package model

import "strings"

// PromptTemplate holds the per-subject prompts for exam generation.
// UserPrompt contains {{bundesland}}, {{hexcode}} and {{difficulty}}
// placeholders which are substituted before the LLM is invoked.
type PromptTemplate struct {
	Subject      string `json:"subject"`
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
}

// Render substitutes all placeholder tokens in the user prompt.
func (t *PromptTemplate) Render(bundesland, hexCode, difficulty string) string {
	r := strings.NewReplacer(
		"{{bundesland}}", bundesland,
		"{{hexcode}}", hexCode,
		"{{difficulty}}", difficulty,
	)
	return r.Replace(t.UserPrompt)
}
