package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client talks to the conversation service. All requests carry the bearer
// token; sourcing the token is the caller's responsibility.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a conversation service client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// exchangeRequest is the POST /chats body.
type exchangeRequest struct {
	Messages  []Turn `json:"messages"`
	ModelName string `json:"model_name"`
}

// OpenExchange sends prior turns plus the new user turn and streams back the
// assistant's answer as decoded events. The returned stream ends with
// EventDone even when the server never sends the completion sentinel.
func (c *Client) OpenExchange(ctx context.Context, turns []Turn, modelName string) Stream {
	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		body, err := json.Marshal(exchangeRequest{Messages: turns, ModelName: modelName})
		if err != nil {
			return fmt.Errorf("encode exchange request: %w", err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chats", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
		httpReq.Header.Set("Accept", "text/event-stream")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return statusError(resp.StatusCode, respBody)
		}

		var decoder Decoder
		buf := make([]byte, 4096)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				for _, ev := range decoder.Feed(string(buf[:n])) {
					events <- ev
					if ev.Type == EventDone {
						return nil
					}
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("stream read error: %w", err)
			}
		}

		for _, ev := range decoder.Flush() {
			events <- ev
			if ev.Type == EventDone {
				return nil
			}
		}
		// End of stream without the sentinel counts as completion.
		events <- Event{Type: EventDone}
		return nil
	})
}

// GetConversation fetches the full turn list of one conversation.
func (c *Client) GetConversation(ctx context.Context, id string) ([]Turn, error) {
	var turns []Turn
	if err := c.doJSON(ctx, http.MethodGet, "/chats/"+id, nil, &turns); err != nil {
		return nil, fmt.Errorf("fetch conversation %s: %w", id, err)
	}
	return turns, nil
}

// ListConversations fetches the summaries of every conversation owned by the
// current principal, most recent first.
func (c *Client) ListConversations(ctx context.Context) ([]ConversationSummary, error) {
	var summaries []ConversationSummary
	if err := c.doJSON(ctx, http.MethodGet, "/chats", nil, &summaries); err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return summaries, nil
}

// DeleteConversation removes one conversation.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/chats/"+id, nil, nil); err != nil {
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}
	return nil
}

// RenameConversation updates a conversation title and returns the updated
// summary record.
func (c *Client) RenameConversation(ctx context.Context, id, title string) (ConversationSummary, error) {
	var summary ConversationSummary
	body := map[string]string{"title": title}
	if err := c.doJSON(ctx, http.MethodPatch, "/chats/"+id+"/title", body, &summary); err != nil {
		return ConversationSummary{}, fmt.Errorf("rename conversation %s: %w", id, err)
	}
	return summary, nil
}

// doJSON issues one request and decodes the JSON response into out when out
// is non-nil. Non-2xx statuses are classified into the error taxonomy.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return statusError(resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
