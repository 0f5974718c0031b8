package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type SMSConfig struct {
	Gateway string // 短信网关地址
	To      string // 值班电话
}

// SMSClient 便于替换/注入的发送接口（适配真实 SDK）
type SMSClient interface {
	Send(ctx context.Context, phone, message string) error
}

// SMSNotifier pages the on-call phone through an injected gateway client.
type SMSNotifier struct {
	cfg SMSConfig
	cli SMSClient
}

func NewSMSNotifier(cfg SMSConfig, cli SMSClient) *SMSNotifier {
	return &SMSNotifier{cfg: cfg, cli: cli}
}

func (s *SMSNotifier) Notify(ctx context.Context, alertID, severity string, payload Payload) error {
	if s.cli == nil {
		return fmt.Errorf("SMSClient not configured")
	}
	msg := fmt.Sprintf("[%s] crisis alert %s user %d: %s", severity, alertID, payload.UserID, payload.Summary)
	return s.cli.Send(ctx, s.cfg.To, msg)
}

// HTTPSMSClient posts to a simple HTTP SMS gateway.
type HTTPSMSClient struct {
	url    string
	client *http.Client
}

func NewHTTPSMSClient(url string) *HTTPSMSClient {
	return &HTTPSMSClient{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

func (c *HTTPSMSClient) Send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(map[string]string{"to": phone, "message": message})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
