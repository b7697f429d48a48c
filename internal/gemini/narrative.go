package gemini

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/genai"

	"pointblank/internal/domain"
)

// narrativeThinkingBudget gives the pro model room to reason before
// writing the long-form analysis.
const narrativeThinkingBudget int32 = 32768

const chatSystemPrompt = `You are a helpful and friendly financial AI assistant named Point.Blank. You provide clear, concise, and accurate information about financial markets, stock analysis, and economic concepts. Do not provide financial advice. Format your responses using Markdown.`

// chatRole maps a transcript role to the API's typed role. RoleUser and
// RoleModel are untyped string constants in the genai package, so the
// conversion has to be explicit. Unknown roles map to the user role.
func chatRole(role string) genai.Role {
	if role == domain.RoleModel {
		return genai.Role(genai.RoleModel)
	}
	return genai.Role(genai.RoleUser)
}

// Narrative asks the pro model for a long-form, search-grounded analysis
// of the ticker and returns it rendered as HTML.
func (c *Client) Narrative(ctx context.Context, ticker string) (string, error) {
	prompt := fmt.Sprintf(`Act as a senior financial analyst. Provide a deep, comprehensive analysis for the stock ticker %q. Cover the following aspects in detail with a professional tone:
1. **Company Overview:** What does the company do? What are its main products/services?
2. **Recent Performance:** Discuss its stock performance over the last quarter.
3. **Strengths & Weaknesses:** What are the key internal strengths and weaknesses?
4. **Opportunities & Threats:** What are the external opportunities and threats (market trends, competition)?
5. **Outlook:** What is the general outlook for the stock in the near to medium term?

Use Markdown for formatting, including bolding for key terms and bullet points for lists.`, ticker)

	resp, err := c.generate(ctx, c.proModel, genai.Text(prompt), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(narrativeThinkingBudget),
		},
	})
	if err != nil {
		return "", err
	}

	return renderMarkdown(resp.Text()), nil
}

// Chat continues an assistant conversation. The caller supplies the full
// prior transcript on every call; nothing is retained between calls. The
// reply is rendered as HTML.
func (c *Client) Chat(ctx context.Context, history []domain.ChatMessage) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("gemini: chat requires at least one message")
	}

	prior := make([]*genai.Content, 0, len(history)-1)
	for _, msg := range history[:len(history)-1] {
		prior = append(prior, genai.NewContentFromText(msg.Content, chatRole(msg.Role)))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	chat, err := c.ai.Chats.Create(ctx, c.flashModel, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(chatSystemPrompt, genai.RoleUser),
	}, prior)
	if err != nil {
		return "", fmt.Errorf("gemini: creating chat: %w", err)
	}

	last := history[len(history)-1]
	resp, err := chat.SendMessage(ctx, genai.Part{Text: last.Content})
	if err != nil {
		return "", fmt.Errorf("gemini: chat send: %w", err)
	}

	return renderMarkdown(resp.Text()), nil
}

// AnalyzeImage runs the model over a base64-encoded JPEG (e.g. a chart
// screenshot) with a user prompt, returning the HTML-rendered answer.
func (c *Client) AnalyzeImage(ctx context.Context, jpegBase64, prompt string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(jpegBase64)
	if err != nil {
		return "", fmt.Errorf("gemini: decoding image: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, "image/jpeg"),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	resp, err := c.generate(ctx, c.flashModel, contents, nil)
	if err != nil {
		return "", err
	}

	return renderMarkdown(resp.Text()), nil
}
