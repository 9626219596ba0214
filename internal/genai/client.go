package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/tidwall/gjson"
	"google.golang.org/api/option"

	"github.com/seureview/content-engine/internal/models"
)

// Generator is the generative-content surface used by the API layer.
type Generator interface {
	GeneratePost(ctx context.Context, product models.ProductOption, affiliateURL string) (*models.PostContent, error)
	GenerateBlogPost(ctx context.Context, topic string) (*models.BlogPost, error)
	GenerateVideoScript(ctx context.Context, topic, videoType string) (*models.VideoScript, error)
	CompareProducts(ctx context.Context, a, b models.ProductOption) (string, error)
	OptimizationSuggestions(ctx context.Context, title, body string) ([]string, error)
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
	GenerateReelsVideo(ctx context.Context, prompt string) (string, error)
	Chat(ctx context.Context, history []models.ChatMessage, message string) (string, error)
}

// Client wraps the Gemini SDK. Structured content goes through
// function-calling; the image endpoint is plain REST because the SDK does
// not expose image models.
type Client struct {
	client     *genai.Client
	model      string
	imageModel string
	apiKey     string
	httpClient *http.Client
}

func NewClient(ctx context.Context, apiKey, model, imageModel string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{
		client:     client,
		model:      model,
		imageModel: imageModel,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// GeneratePost produces the social post bundle for a selected product.
// The affiliate link is injected after generation so the model never
// invents tracking URLs.
func (c *Client) GeneratePost(ctx context.Context, product models.ProductOption, affiliateURL string) (*models.PostContent, error) {
	prompt := fmt.Sprintf(`Write a Brazilian Portuguese social media post promoting this marketplace product:

Name: %s
Price: %s
Rating: %.1f / 5
Sales: %s

Use emoji, keep it energetic, and include relevant hashtags. Also produce
three alternative templates named "Foco em Benefícios", "Urgência / Escassez"
and "Prova Social". Do not include any URL in the text.`,
		product.ProductName, product.Price, product.Rating, product.SalesVolume)

	var content models.PostContent
	if err := c.callFunction(ctx, socialPostTool, fnSocialPost, prompt, &content); err != nil {
		return nil, err
	}

	content.AffiliateURL = affiliateURL
	content.ProductImageURL = product.ImageURL
	if err := content.Validate(); err != nil {
		return nil, fmt.Errorf("model returned incomplete post: %w", err)
	}
	return &content, nil
}

func (c *Client) GenerateBlogPost(ctx context.Context, topic string) (*models.BlogPost, error) {
	prompt := fmt.Sprintf(`Write a Brazilian Portuguese blog article about %q for an
affiliate marketing site. Aim for 4-6 sections and practical SEO keywords.`, topic)

	var post models.BlogPost
	if err := c.callFunction(ctx, blogPostTool, fnBlogPost, prompt, &post); err != nil {
		return nil, err
	}
	if err := post.Validate(); err != nil {
		return nil, fmt.Errorf("model returned incomplete article: %w", err)
	}
	return &post, nil
}

func (c *Client) GenerateVideoScript(ctx context.Context, topic, videoType string) (*models.VideoScript, error) {
	length := "a 60 second short-form video"
	if videoType == "long" {
		length = "an 8-10 minute YouTube video"
	}
	prompt := fmt.Sprintf(`Write a Brazilian Portuguese script for %s about %q.
Start with a strong hook for the first three seconds.`, length, topic)

	var script models.VideoScript
	if err := c.callFunction(ctx, videoScriptTool, fnVideoScript, prompt, &script); err != nil {
		return nil, err
	}
	if err := script.Validate(); err != nil {
		return nil, fmt.Errorf("model returned incomplete script: %w", err)
	}
	return &script, nil
}

// CompareProducts returns a Markdown comparison of two products. The
// caller renders it to HTML.
func (c *Client) CompareProducts(ctx context.Context, a, b models.ProductOption) (string, error) {
	prompt := fmt.Sprintf(`Compare these two marketplace products for an affiliate
marketer deciding which one to promote. Answer in Brazilian Portuguese
Markdown with a short intro, a 3-column table (attribute, product A,
product B) covering price, rating and commission, and a final
recommendation.

Product A: %s — price %s, rating %.1f, commission %s, %s
Product B: %s — price %s, rating %.1f, commission %s, %s`,
		a.ProductName, a.Price, a.Rating, a.Commission, a.SalesVolume,
		b.ProductName, b.Price, b.Rating, b.Commission, b.SalesVolume)

	return c.generateText(ctx, prompt)
}

// OptimizationSuggestions returns short improvement tips for a drafted
// post. Callers treat failures as "no suggestions".
func (c *Client) OptimizationSuggestions(ctx context.Context, title, body string) ([]string, error) {
	prompt := fmt.Sprintf(`Give 3 short suggestions (one line each, Brazilian
Portuguese, no numbering preamble) to improve engagement of this post:

Title: %s

%s`, title, body)

	text, err := c.generateText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var suggestions []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789. ")
		if line != "" {
			suggestions = append(suggestions, line)
		}
	}
	if len(suggestions) > 5 {
		suggestions = suggestions[:5]
	}
	return suggestions, nil
}

// GenerateImage calls the image model's REST predict endpoint and returns
// the raw image bytes.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	reqBody := map[string]interface{}{
		"instances":  []map[string]string{{"prompt": prompt}},
		"parameters": map[string]int{"sampleCount": 1},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image request: %w", err)
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:predict?key=%s", c.imageModel, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	encoded := gjson.GetBytes(raw, "predictions.0.bytesBase64Encoded").String()
	if encoded == "" {
		return nil, fmt.Errorf("image API returned no image data")
	}

	img, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("image API returned invalid base64: %w", err)
	}
	return img, nil
}

// GenerateReelsVideo is not wired to a video backend yet.
func (c *Client) GenerateReelsVideo(ctx context.Context, prompt string) (string, error) {
	return "", models.ErrVideoNotConfigured
}

const chatSystemPrompt = `Você é o assistente virtual do SeuReview, uma
plataforma de automação de conteúdo para marketing de afiliados. Seja
amigável, prestativo e responda em português do Brasil. Ajude os usuários
a entenderem a plataforma e a tirarem o máximo proveito dela.`

// Chat runs one turn of the dashboard assistant conversation on top of
// the stored history.
func (c *Client) Chat(ctx context.Context, history []models.ChatMessage, message string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(chatSystemPrompt)},
	}

	cs := model.StartChat()
	cs.History = chatHistory(history)

	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	text := cleanModelText(sb.String())
	if text == "" {
		return "", fmt.Errorf("no response generated")
	}
	return text, nil
}

// chatHistory maps stored conversation turns onto the wire roles the
// model expects. Blank turns are skipped.
func chatHistory(history []models.ChatMessage) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		if m.Text == "" {
			continue
		}
		role := "user"
		if m.Role == models.ChatRoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Text)},
		})
	}
	return out
}

// callFunction runs one function-calling request and decodes the returned
// arguments into out.
func (c *Client) callFunction(ctx context.Context, tool *genai.Tool, fnName, prompt string, out interface{}) error {
	model := c.client.GenerativeModel(c.model)
	model.Tools = []*genai.Tool{tool}
	model.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode:                 genai.FunctionCallingAny,
			AllowedFunctionNames: []string{fnName},
		},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("generation request failed: %w", err)
	}

	call, err := findFunctionCall(resp, fnName)
	if err != nil {
		return err
	}
	return DecodeArgs(call.Args, out)
}

func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	text := cleanModelText(sb.String())
	if text == "" {
		return "", fmt.Errorf("no response generated")
	}
	return text, nil
}

func findFunctionCall(resp *genai.GenerateContentResponse, fnName string) (*genai.FunctionCall, error) {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if call, ok := part.(genai.FunctionCall); ok && call.Name == fnName {
				return &call, nil
			}
		}
	}
	return nil, fmt.Errorf("model did not call %s", fnName)
}

// cleanModelText strips markdown code fences the model sometimes wraps
// answers in.
func cleanModelText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```markdown")
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeArgs converts function-call arguments into a typed struct by
// round-tripping through JSON. Malformed arguments fail here, at the
// boundary, instead of surfacing as blank fields later.
func DecodeArgs(args map[string]any, out interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to marshal function args: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("function args do not match schema: %w", err)
	}
	return nil
}
