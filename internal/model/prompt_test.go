package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptTemplateRender(t *testing.T) {
	tests := []struct {
		name       string
		userPrompt string
		want       string
	}{
		{
			name:       "all placeholders",
			userPrompt: "Erstelle eine {{difficulty}}-Prüfung für {{bundesland}} mit Code {{hexcode}}.",
			want:       "Erstelle eine Leistungskurs-Prüfung für Bayern mit Code A1B2C3D4.",
		},
		{
			name:       "repeated placeholder",
			userPrompt: "{{bundesland}} und nochmal {{bundesland}}",
			want:       "Bayern und nochmal Bayern",
		},
		{
			name:       "no placeholders",
			userPrompt: "statischer Prompt",
			want:       "statischer Prompt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := &PromptTemplate{Subject: "Mathematik", UserPrompt: tt.userPrompt}
			got := tpl.Render("Bayern", "A1B2C3D4", "Leistungskurs")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExamJobStatusTerminal(t *testing.T) {
	assert.False(t, ExamJobStatusGenerating.Terminal())
	assert.True(t, ExamJobStatusCompleted.Terminal())
	assert.True(t, ExamJobStatusError.Terminal())
}

func TestIsBundesland(t *testing.T) {
	assert.True(t, IsBundesland("Berlin"))
	assert.True(t, IsBundesland("Baden-Württemberg"))
	assert.False(t, IsBundesland("berlin"))
	assert.False(t, IsBundesland("Wien"))
}
