package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Discord caps message content at 2000 characters; longer bodies are sent in
// chunks split on line boundaries.
const discordMaxContentLen = 2000

// discordChannel delivers messages through a Discord webhook.
type discordChannel struct {
	client     *http.Client
	webhookURL string
	username   string
}

// NewDiscordChannel creates a Discord webhook notification channel.
func NewDiscordChannel(webhookURL, username string) Channel {
	return &discordChannel{
		client:     &http.Client{Timeout: 30 * time.Second},
		webhookURL: webhookURL,
		username:   username,
	}
}

func (c *discordChannel) Name() string {
	return "discord"
}

func (c *discordChannel) Send(ctx context.Context, msg Message) error {
	for _, chunk := range splitChunks(msg.Body, discordMaxContentLen) {
		if err := c.post(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (c *discordChannel) post(ctx context.Context, content string) error {
	payload := map[string]string{"content": content}
	if c.username != "" {
		payload["username"] = c.username
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	// Discord returns 204 on success.
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// splitChunks splits text into pieces no longer than limit, preferring line
// boundaries.
func splitChunks(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current bytes.Buffer
	for _, line := range bytes.Split([]byte(text), []byte("\n")) {
		if current.Len()+len(line)+1 > limit && current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		for len(line) > limit {
			chunks = append(chunks, string(line[:limit]))
			line = line[limit:]
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.Write(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
