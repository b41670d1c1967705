package builtin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/tools"
	"github.com/kiosk404/quickgpt/pkg/utils/json"
)

const (
	noEnglishResults = "No English search results found."
	zhipuKeyEnv      = "ZHIPU_API_KEY"
	userAgent        = "Mozilla/5.0 (X11; Linux x86_64) quickgpt"
)

// Searcher backs the web search tools.
type Searcher struct {
	client        *http.Client
	ddgEndpoint   string
	zhipuEndpoint string
	maxResults    int
}

func NewSearcher(client *http.Client, ddgEndpoint, zhipuEndpoint string, maxResults int) *Searcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Searcher{
		client:        client,
		ddgEndpoint:   ddgEndpoint,
		zhipuEndpoint: zhipuEndpoint,
		maxResults:    maxResults,
	}
}

func (s *Searcher) definitions() []tools.ToolDefinition {
	return []tools.ToolDefinition{
		{
			Name:        "web_search_english",
			Description: "Search the internet with DuckDuckGo, for English content only. Returns title, snippet and link of each result.",
			Parameters: []tools.ParameterDef{
				{Name: "query", Type: "string", Description: "The content to search for, English only", Required: true},
				{Name: "max_results", Type: "integer", Description: fmt.Sprintf("Maximum number of results (default %d)", s.maxResults)},
			},
			Handler: s.searchEnglish,
		},
		{
			Name:        "web_search_chinese",
			Description: "Search the internet for Chinese content. Returns a summary of the search results.",
			Parameters: []tools.ParameterDef{
				{Name: "query", Type: "string", Description: "The content to search for, Chinese queries only", Required: true},
			},
			Handler: s.searchChinese,
		},
	}
}

// SearchResult is one English search hit.
type SearchResult struct {
	Title   string
	Snippet string
	Link    string
}

func (r SearchResult) String() string {
	return fmt.Sprintf("Title: %s\nSnippet: %s\nLink: %s\n", r.Title, r.Snippet, r.Link)
}

func (s *Searcher) searchEnglish(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	query, err := tools.StringArg(params, "query")
	if err != nil {
		return nil, err
	}
	limit, err := tools.IntArg(params, "max_results", s.maxResults)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.maxResults
	}

	results, err := s.English(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("an error occurred during the request: %w", err)
	}
	if len(results) == 0 {
		return noEnglishResults, nil
	}
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, r.String())
	}
	return strings.Join(blocks, "\n\n"), nil
}

// English queries the DuckDuckGo HTML endpoint and returns at most limit results.
func (s *Searcher) English(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	form := url.Values{"q": {query}, "kl": {"us-en"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.ddgEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	converter := md.NewConverter("", true, nil)
	var results []SearchResult
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		anchor := sel.Find(".result__a").First()
		title := strings.TrimSpace(anchor.Text())
		if title == "" {
			return true
		}
		href, _ := anchor.Attr("href")

		snippet := "No description"
		if html, err := sel.Find(".result__snippet").First().Html(); err == nil && strings.TrimSpace(html) != "" {
			if text, err := converter.ConvertString(html); err == nil {
				snippet = strings.TrimSpace(text)
			}
		}

		results = append(results, SearchResult{Title: title, Snippet: snippet, Link: resolveLink(href)})
		return len(results) < limit
	})
	return results, nil
}

// resolveLink unwraps DuckDuckGo redirect links to the target URL.
func resolveLink(href string) string {
	if href == "" {
		return "No URL"
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

type zhipuRequest struct {
	Tool     string         `json:"tool"`
	Messages []zhipuMessage `json:"messages"`
	Stream   bool           `json:"stream"`
}

type zhipuMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type zhipuResponse struct {
	Choices []struct {
		Message struct {
			ToolCalls []struct {
				SearchResult []struct {
					Content string `json:"content"`
				} `json:"search_result"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *Searcher) searchChinese(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	query, err := tools.StringArg(params, "query")
	if err != nil {
		return nil, err
	}
	contents, err := s.Chinese(ctx, query)
	if err != nil {
		return nil, err
	}
	return strings.Join(contents, "\n\n\n"), nil
}

// Chinese calls Zhipu's web-search-pro tool and returns every result's content.
func (s *Searcher) Chinese(ctx context.Context, query string) ([]string, error) {
	key := os.Getenv(zhipuKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%s is not set", zhipuKeyEnv)
	}

	body, err := json.Marshal(zhipuRequest{
		Tool:     "web-search-pro",
		Messages: []zhipuMessage{{Role: "user", Content: query}},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.zhipuEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", key)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web-search-pro returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed zhipuResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode web-search-pro response: %w", err)
	}
	var contents []string
	for _, choice := range parsed.Choices {
		for _, call := range choice.Message.ToolCalls {
			for _, r := range call.SearchResult {
				contents = append(contents, r.Content)
			}
		}
	}
	return contents, nil
}
