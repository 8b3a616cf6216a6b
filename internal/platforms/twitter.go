package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const twitterTweetsURL = "https://api.twitter.com/2/tweets"

type twitterPublisher struct {
	client *http.Client
}

func NewTwitterPublisher(client *http.Client) Publisher {
	return &twitterPublisher{client: client}
}

func (t *twitterPublisher) Platform() Platform {
	return PlatformTwitter
}

func (t *twitterPublisher) Publish(ctx context.Context, accessToken, accountID, content string, mediaURLs []string) (*PublishResult, error) {
	payload := struct {
		Text string `json:"text"`
	}{Text: content}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, twitterTweetsURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := t.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("twitter request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Platform: PlatformTwitter, StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	var result struct {
		Data struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode twitter response: %w", err)
	}

	return &PublishResult{ExternalID: result.Data.ID}, nil
}
