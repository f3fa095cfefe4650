package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Notifier delivers a message to one channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, m Message) error
}

// Default channel endpoints.
const (
	ServerChanBase = "https://sctapi.ftqq.com"
	TelegramBase   = "https://api.telegram.org"
)

// Bark pushes through a Bark device URL: GET <url>/<title>/<body>.
type Bark struct {
	URL    string
	Client *http.Client
}

func (b *Bark) Name() string { return "bark" }

func (b *Bark) Send(ctx context.Context, m Message) error {
	target := strings.TrimRight(b.URL, "/") + "/" + url.PathEscape(m.Title) + "/" + url.PathEscape(m.Body)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return do(b.Client, req)
}

// ServerChan posts to the ServerChan (Server酱) send API.
type ServerChan struct {
	Key    string
	Base   string
	Client *http.Client
}

func (s *ServerChan) Name() string { return "serverchan" }

func (s *ServerChan) Send(ctx context.Context, m Message) error {
	base := s.Base
	if base == "" {
		base = ServerChanBase
	}
	form := url.Values{"title": {m.Title}, "desp": {m.Body}}
	return postForm(ctx, s.Client, strings.TrimRight(base, "/")+"/"+s.Key+".send", form)
}

// WeCom posts a text message to an enterprise WeChat group webhook.
type WeCom struct {
	Webhook string
	Client  *http.Client
}

func (w *WeCom) Name() string { return "wecom" }

func (w *WeCom) Send(ctx context.Context, m Message) error {
	payload := map[string]interface{}{
		"msgtype": "text",
		"text":    map[string]string{"content": m.Text()},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.Webhook, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(w.Client, req)
}

// Telegram sends through the Bot API sendMessage method.
type Telegram struct {
	Token  string
	ChatID string
	Base   string
	Client *http.Client
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, m Message) error {
	base := t.Base
	if base == "" {
		base = TelegramBase
	}
	form := url.Values{"chat_id": {t.ChatID}, "text": {m.Text()}}
	return postForm(ctx, t.Client, strings.TrimRight(base, "/")+"/bot"+t.Token+"/sendMessage", form)
}

func postForm(ctx context.Context, c *http.Client, target string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(c, req)
}

func do(c *http.Client, req *http.Request) error {
	if c == nil {
		c = http.DefaultClient
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
