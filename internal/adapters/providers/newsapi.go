package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
)

const newsAPIDefaultBaseURL = "https://newsapi.org/v2"

// NewsClient fetches security headlines from NewsAPI.
type NewsClient struct {
	client  *Client
	baseURL string
	apiKey  string
}

type newsResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// NewNewsClient creates a NewsAPI adapter.
func NewNewsClient(client *Client, baseURL, apiKey string) *NewsClient {
	if baseURL == "" {
		baseURL = newsAPIDefaultBaseURL
	}
	return &NewsClient{client: client, baseURL: baseURL, apiKey: apiKey}
}

// Headlines fetches recent articles matching query, newest first.
func (n *NewsClient) Headlines(ctx context.Context, query string, pageSize int) ([]domain.NewsArticle, error) {
	if query == "" {
		query = "cybersecurity OR vulnerability OR ransomware"
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("pageSize", fmt.Sprintf("%d", pageSize))
	q.Set("sortBy", "publishedAt")
	q.Set("language", "en")

	headers := map[string]string{"X-Api-Key": n.apiKey}

	var resp newsResponse
	key := fmt.Sprintf("newsapi-headlines-%d.json", pageSize)
	if err := n.client.GetJSON(ctx, "newsapi", key, n.baseURL+"/everything?"+q.Encode(), headers, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		return nil, &ProviderError{Provider: "newsapi", Err: fmt.Errorf("status %q", resp.Status)}
	}

	articles := make([]domain.NewsArticle, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		articles = append(articles, domain.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source.Name,
			Author:      a.Author,
			URL:         a.URL,
			ImageURL:    a.URLToImage,
			PublishedAt: a.PublishedAt,
		})
	}
	return articles, nil
}
