package genai

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"

	"github.com/seureview/content-engine/internal/models"
)

func TestDecodeArgs(t *testing.T) {
	args := map[string]any{
		"socialPostTitle": "🎧 Fone incrível!",
		"socialPostBody":  "O melhor custo-benefício.",
		"callToAction":    "Corre pra garantir!",
		"postTemplates": []any{
			map[string]any{"name": "Foco em Benefícios", "body": "..."},
		},
	}

	var content models.PostContent
	assert.NoError(t, DecodeArgs(args, &content))
	assert.Equal(t, "🎧 Fone incrível!", content.SocialPostTitle)
	assert.Len(t, content.PostTemplates, 1)
	assert.Equal(t, "Foco em Benefícios", content.PostTemplates[0].Name)
	assert.NoError(t, content.Validate())
}

func TestDecodeArgsTypeMismatch(t *testing.T) {
	args := map[string]any{
		"title":      "Roteiro",
		"mainPoints": "não é uma lista",
	}

	var script models.VideoScript
	err := DecodeArgs(args, &script)
	assert.Error(t, err, "a scalar where a list belongs must fail at the boundary")
}

func TestFindFunctionCall(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []genai.Part{
						genai.Text("calling the tool now"),
						genai.FunctionCall{
							Name: fnSocialPost,
							Args: map[string]any{"socialPostTitle": "t"},
						},
					},
				},
			},
		},
	}

	call, err := findFunctionCall(resp, fnSocialPost)
	assert.NoError(t, err)
	assert.Equal(t, "t", call.Args["socialPostTitle"])
}

func TestFindFunctionCallMissing(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("no tool call")}}},
		},
	}

	_, err := findFunctionCall(resp, fnBlogPost)
	assert.Error(t, err)
}

func TestChatHistory(t *testing.T) {
	history := []models.ChatMessage{
		{Role: models.ChatRoleUser, Text: "Oi"},
		{Role: models.ChatRoleAssistant, Text: ""},
		{Role: models.ChatRoleAssistant, Text: "Olá! Como posso ajudar?"},
		{Role: "something-else", Text: "tanto faz"},
	}

	contents := chatHistory(history)
	assert.Len(t, contents, 3, "blank turns are dropped")

	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, genai.Text("Oi"), contents[0].Parts[0])

	assert.Equal(t, "model", contents[1].Role, "assistant turns map onto the model role")
	assert.Equal(t, genai.Text("Olá! Como posso ajudar?"), contents[1].Parts[0])

	// Unknown roles fall back to the user side rather than being invented.
	assert.Equal(t, "user", contents[2].Role)
}

func TestCleanModelText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "## Comparação", "## Comparação"},
		{"fenced", "```markdown\n## Comparação\n```", "## Comparação"},
		{"json fence", "```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"bare fence", "```\ntexto\n```", "texto"},
		{"surrounding whitespace", "  texto  \n", "texto"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelText(tt.in))
		})
	}
}
