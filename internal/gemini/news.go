package gemini

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"google.golang.org/genai"

	"pointblank/internal/domain"
)

// maxNewsArticles caps how many grounded headlines a single cycle surfaces.
const maxNewsArticles = 8

// News fetches recent headlines for the ticker via the model's Google
// Search grounding. The articles come from the grounding chunks, not the
// generated prose; an absent grounding block yields an empty list, which
// is a legitimate result rather than an error.
func (c *Client) News(ctx context.Context, ticker string) ([]domain.NewsArticle, error) {
	prompt := fmt.Sprintf(`Fetch the top 5 latest news articles for the stock ticker %q. For each article, provide the title, a direct link to the article, the source name, and the publication date. Do NOT summarize.`, ticker)

	resp, err := c.generate(ctx, c.flashModel, genai.Text(prompt), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return []domain.NewsArticle{}, nil
	}

	chunks := resp.Candidates[0].GroundingMetadata.GroundingChunks
	articles := make([]domain.NewsArticle, 0, len(chunks))
	// Search grounding carries no publication dates; stamp with fetch time.
	published := time.Now().UTC().Format(time.RFC3339)

	for _, chunk := range chunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		article := domain.NewsArticle{
			Title:     chunk.Web.Title,
			Link:      chunk.Web.URI,
			Published: published,
		}
		if article.Title == "" {
			article.Title = "No Title Available"
		}
		if u, err := url.Parse(chunk.Web.URI); err == nil && u.Hostname() != "" {
			article.Source = u.Hostname()
			article.Image = "https://logo.clearbit.com/" + u.Hostname()
		}
		articles = append(articles, article)
		if len(articles) == maxNewsArticles {
			break
		}
	}

	return articles, nil
}
