package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anaskhan96/soup"

	"github.com/goreforced/YCTNewsBot-TG/internal/config"
)

// Сколько символов текста статьи отправляется модели вместе со ссылкой
const pageExcerptLimit = 4000

const promptTemplate = "По ссылке %s сделай краткий заголовок на русском (до %d символов) " +
	"и пересказ статьи на русском (до %d символов). " +
	"Первой строкой выведи только заголовок, со второй строки — пересказ, без пояснений."

// Client делает заголовок и пересказ статьи через OpenRouter
// (или любой другой OpenAI-совместимый API)
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	referer    string
	maxTitle   int
	maxSummary int
	httpClient *http.Client
}

// New возвращает новый Client
func New(cfg config.OpenRouterConfig) *Client {
	return &Client{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		referer:    cfg.Referer,
		maxTitle:   cfg.MaxTitleLen,
		maxSummary: cfg.MaxSummaryLen,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize возвращает заголовок и пересказ статьи на русском.
// Первая строка ответа модели — заголовок, всё остальное — пересказ
func (c *Client) Summarize(ctx context.Context, link string) (string, string, error) {
	if c.apiKey == "" {
		return "", "", errors.New("summarize: API key не задан, запрос не отправлен")
	}

	prompt := fmt.Sprintf(promptTemplate, link, c.maxTitle, c.maxSummary)
	if excerpt := c.pageExcerpt(link); excerpt != "" {
		prompt += "\n\nТекст статьи:\n" + excerpt
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", "", fmt.Errorf("summarize: marshal запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("summarize: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
		req.Header.Set("X-Title", "YCTNewsBot")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("summarize: запрос к API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", "", fmt.Errorf("summarize: API вернул %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", "", fmt.Errorf("summarize: unmarshal ответа: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", "", errors.New("summarize: пустой ответ API")
	}

	return c.splitContent(parsed.Choices[0].Message.Content)
}

// splitContent разбирает ответ модели: первая строка — заголовок, остальное — пересказ
func (c *Client) splitContent(content string) (string, string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", "", errors.New("summarize: модель вернула пустой текст")
	}

	title := content
	summary := ""
	if idx := strings.Index(content, "\n"); idx != -1 {
		title = strings.TrimSpace(content[:idx])
		summary = strings.TrimSpace(content[idx+1:])
	}
	if summary == "" {
		return "", "", errors.New("summarize: пересказ не получен")
	}

	return truncateRunes(title, c.maxTitle), truncateRunes(summary, c.maxSummary), nil
}

// pageExcerpt загружает страницу статьи и вытаскивает текст абзацев.
// Любая ошибка здесь не фатальна: модель получит только ссылку
func (c *Client) pageExcerpt(link string) string {
	pageClient := &http.Client{Timeout: 10 * time.Second}
	resp, err := soup.GetWithClient(link, pageClient)
	if err != nil {
		return ""
	}

	doc := soup.HTMLParse(resp)
	if doc.Error != nil {
		return ""
	}

	var b strings.Builder
	for _, p := range doc.FindAll("p") {
		text := strings.TrimSpace(p.FullText())
		if text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
		if b.Len() > pageExcerptLimit*4 {
			break
		}
	}

	return truncateRunes(strings.TrimSpace(b.String()), pageExcerptLimit)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
