package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"flashdeck/internal/services"
)

const defaultHTTPTimeout = 30 * time.Second

// Config captures the runtime settings required to talk to the Notion API.
type Config struct {
	Token          string
	BaseURL        string
	Version        string
	TimeoutSeconds int
}

// Client fetches pages and media from the Notion API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a Notion client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			Token:          strings.TrimSpace(cfg.Token),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Version:        strings.TrimSpace(cfg.Version),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.notion.com/v1"
	}
	if client.cfg.Version == "" {
		client.cfg.Version = "2022-06-28"
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	return client
}

// ExtractPageID resolves a page reference to a bare page ID. Supported forms:
//
//	https://www.notion.so/Page-Title-abc123def456
//	https://www.notion.so/workspace/Page-Title-abc123def456
//	abc123def456
func ExtractPageID(reference string) string {
	reference = strings.TrimSpace(reference)
	pageID := reference
	if strings.Contains(reference, "notion.so") {
		part := strings.TrimRight(reference, "/")
		if idx := strings.LastIndex(part, "/"); idx >= 0 {
			part = part[idx+1:]
		}
		if idx := strings.LastIndex(part, "-"); idx >= 0 {
			part = part[idx+1:]
		}
		pageID = part
	}
	if idx := strings.Index(pageID, "?"); idx >= 0 {
		pageID = pageID[:idx]
	}
	return strings.ReplaceAll(pageID, "-", "")
}

// FetchPage retrieves a page's title and fully expanded block tree.
func (c *Client) FetchPage(ctx context.Context, reference string) (*Page, error) {
	if c.cfg.Token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "notion", "fetch page", "integration token required", nil)
	}
	pageID := ExtractPageID(reference)
	if pageID == "" {
		return nil, services.Wrap(services.ErrNotFound, "notion", "fetch page", "empty page reference", nil)
	}

	var page apiPage
	if err := c.getJSON(ctx, "/pages/"+url.PathEscape(pageID), nil, &page); err != nil {
		return nil, fmt.Errorf("retrieve page %s: %w", pageID, err)
	}

	blocks, err := c.fetchChildren(ctx, pageID)
	if err != nil {
		return nil, err
	}

	return &Page{
		ID:     pageID,
		Title:  page.title(),
		Blocks: blocks,
	}, nil
}

// FetchMedia downloads a media asset referenced by a block.
func (c *Client) FetchMedia(ctx context.Context, assetURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("media request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch media: http %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) fetchChildren(ctx context.Context, blockID string) ([]Block, error) {
	var blocks []Block
	cursor := ""

	for {
		query := url.Values{"page_size": {"100"}}
		if cursor != "" {
			query.Set("start_cursor", cursor)
		}

		var list apiBlockList
		if err := c.getJSON(ctx, "/blocks/"+url.PathEscape(blockID)+"/children", query, &list); err != nil {
			return nil, fmt.Errorf("list children of %s: %w", blockID, err)
		}

		for _, raw := range list.Results {
			block := raw.toBlock()
			if raw.HasChildren {
				children, err := c.fetchChildren(ctx, raw.ID)
				if err != nil {
					return nil, err
				}
				block.Children = children
			}
			blocks = append(blocks, block)
		}

		if !list.HasMore || list.NextCursor == "" {
			break
		}
		cursor = list.NextCursor
	}

	return blocks, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) error {
	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Notion-Version", c.cfg.Version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if err := classifyStatus(resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func classifyStatus(status int, body []byte) error {
	if status == http.StatusOK {
		return nil
	}
	message := apiErrorMessage(body)
	switch status {
	case http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "notion", "api", message, nil)
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.Wrap(services.ErrAccessDenied, "notion", "api",
			message+" (share the page with the integration)", nil)
	case http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, "notion", "api", message, nil)
	default:
		return fmt.Errorf("notion api: http %d: %s", status, message)
	}
}

func apiErrorMessage(body []byte) string {
	var apiErr struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "no error detail"
	}
	return trimmed
}

type apiPage struct {
	Properties map[string]struct {
		Type  string        `json:"type"`
		Title []apiRichText `json:"title"`
	} `json:"properties"`
}

func (p apiPage) title() string {
	for _, key := range []string{"title", "Title", "Name"} {
		prop, ok := p.Properties[key]
		if !ok || prop.Type != "title" || len(prop.Title) == 0 {
			continue
		}
		var b strings.Builder
		for _, part := range prop.Title {
			b.WriteString(part.PlainText)
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return "Untitled"
}

type apiBlockList struct {
	Results    []apiBlock `json:"results"`
	HasMore    bool       `json:"has_more"`
	NextCursor string     `json:"next_cursor"`
}

type apiRichText struct {
	PlainText   string `json:"plain_text"`
	Href        string `json:"href"`
	Annotations struct {
		Bold          bool `json:"bold"`
		Italic        bool `json:"italic"`
		Code          bool `json:"code"`
		Strikethrough bool `json:"strikethrough"`
	} `json:"annotations"`
}

type apiBlockContent struct {
	RichText []apiRichText `json:"rich_text"`
	Language string        `json:"language"`
	Checked  bool          `json:"checked"`
	Icon     *struct {
		Type  string `json:"type"`
		Emoji string `json:"emoji"`
	} `json:"icon"`
	External *struct {
		URL string `json:"url"`
	} `json:"external"`
	File *struct {
		URL string `json:"url"`
	} `json:"file"`
}

type apiBlock struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children"`

	raw map[string]json.RawMessage
}

// UnmarshalJSON keeps the kind-specific payload, which the API nests under a
// key named after the block type.
func (b *apiBlock) UnmarshalJSON(data []byte) error {
	type plain struct {
		ID          string `json:"id"`
		Type        string `json:"type"`
		HasChildren bool   `json:"has_children"`
	}
	var head plain
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	b.ID = head.ID
	b.Type = head.Type
	b.HasChildren = head.HasChildren
	return json.Unmarshal(data, &b.raw)
}

func (b apiBlock) content() apiBlockContent {
	var content apiBlockContent
	if raw, ok := b.raw[b.Type]; ok {
		_ = json.Unmarshal(raw, &content)
	}
	return content
}

func (b apiBlock) toBlock() Block {
	content := b.content()
	block := Block{
		ID:       b.ID,
		Kind:     BlockKind(b.Type),
		Language: content.Language,
		Checked:  content.Checked,
	}
	if content.Icon != nil && content.Icon.Type == "emoji" {
		block.Emoji = content.Icon.Emoji
	}
	if block.Kind == KindImage {
		switch {
		case content.External != nil:
			block.ImageURL = content.External.URL
		case content.File != nil:
			block.ImageURL = content.File.URL
		}
	}
	for _, rt := range content.RichText {
		block.Spans = append(block.Spans, Span{
			Text:          rt.PlainText,
			Bold:          rt.Annotations.Bold,
			Italic:        rt.Annotations.Italic,
			Code:          rt.Annotations.Code,
			Strikethrough: rt.Annotations.Strikethrough,
			Link:          rt.Href,
		})
	}
	return block
}
