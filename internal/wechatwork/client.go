package wechatwork

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mattmezza/wwalert/internal/config"
)

// tokenMargin is subtracted from expires_in so a cached token is never used
// right at its expiry.
const tokenMargin = 5 * time.Minute

// ErrClientNotConfigured is returned when sending through a nil *Client.
var ErrClientNotConfigured = errors.New("client not configured")

// Sender is what the alerter needs from the chat platform.
type Sender interface {
	SendMessage(agentID string, msg AppMessage) (*Response, error)
	SendWebhook(key string, msg WebhookMessage) (*Response, error)
}

type Text struct {
	Content string `json:"content"`
}

// AppMessage is the body of message/send.
type AppMessage struct {
	AgentID string `json:"agentid"`
	MsgType string `json:"msgtype"`
	Text    Text   `json:"text"`
	ToUser  string `json:"touser"`
}

// WebhookMessage is the body of webhook/send.
type WebhookMessage struct {
	MsgType string `json:"msgtype"`
	Text    Text   `json:"text"`
}

func NewTextMessage(agentID, toUser, content string) AppMessage {
	return AppMessage{AgentID: agentID, MsgType: "text", Text: Text{Content: content}, ToUser: toUser}
}

func NewTextWebhook(content string) WebhookMessage {
	return WebhookMessage{MsgType: "text", Text: Text{Content: content}}
}

// Response is the common envelope returned by every endpoint.
type Response struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (r *Response) IsOK() bool {
	return r != nil && r.ErrCode == 0
}

func (r *Response) ErrorMessage() string {
	if r == nil {
		return "empty response"
	}
	if r.ErrMsg == "" {
		return fmt.Sprintf("errcode %d", r.ErrCode)
	}
	return fmt.Sprintf("%s (errcode %d)", r.ErrMsg, r.ErrCode)
}

type tokenResponse struct {
	Response
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

type Client struct {
	baseURL    string
	corpID     string
	corpSecret string
	client     *http.Client
	now        func() time.Time

	mu     sync.Mutex
	tokens map[string]cachedToken // agent id -> token
}

func NewClient(cfg config.WechatWorkConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("wechat work client is missing base_url")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		corpID:     cfg.CorpID,
		corpSecret: cfg.CorpSecret,
		client:     &http.Client{Timeout: timeout},
		now:        time.Now,
		tokens:     make(map[string]cachedToken),
	}, nil
}

// SendMessage sends an application message on behalf of agentID.
func (c *Client) SendMessage(agentID string, msg AppMessage) (*Response, error) {
	if c == nil {
		return nil, ErrClientNotConfigured
	}
	token, err := c.accessToken(agentID)
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := c.post("message/send", url.Values{"access_token": {token}}, msg, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendWebhook posts to the group robot identified by key.
func (c *Client) SendWebhook(key string, msg WebhookMessage) (*Response, error) {
	if c == nil {
		return nil, ErrClientNotConfigured
	}
	var resp Response
	if err := c.post("webhook/send", url.Values{"key": {key}}, msg, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) accessToken(agentID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tok, ok := c.tokens[agentID]; ok && c.now().Before(tok.expiresAt) {
		return tok.value, nil
	}
	if c.corpID == "" || c.corpSecret == "" {
		return "", fmt.Errorf("failed to get access token: corp_id or corp_secret (from ENV %s) is missing", config.CorpSecretEnv)
	}

	endpoint := c.endpoint("gettoken", url.Values{"corpid": {c.corpID}, "corpsecret": {c.corpSecret}})
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create gettoken request: %w", err)
	}
	var tr tokenResponse
	if err := c.do(req, &tr); err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	if tr.ErrCode != 0 {
		return "", fmt.Errorf("failed to get access token: %s", tr.ErrorMessage())
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("failed to get access token: empty access_token in response")
	}

	ttl := time.Duration(tr.ExpiresIn)*time.Second - tokenMargin
	if ttl > 0 {
		c.tokens[agentID] = cachedToken{value: tr.AccessToken, expiresAt: c.now().Add(ttl)}
	}
	return tr.AccessToken, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	return c.baseURL + "/" + path + "?" + query.Encode()
}

func (c *Client) post(path string, query url.Values, body interface{}, out interface{}) error {
	payloadBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", path, err)
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint(path, query), bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(req, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		// url.Error repeats the full URL, which carries secrets in its query.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
