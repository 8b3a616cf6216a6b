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

const facebookGraphURL = "https://graph.facebook.com/v19.0"

type facebookPublisher struct {
	client *http.Client
}

func NewFacebookPublisher(client *http.Client) Publisher {
	return &facebookPublisher{client: client}
}

func (f *facebookPublisher) Platform() Platform {
	return PlatformFacebook
}

func (f *facebookPublisher) Publish(ctx context.Context, accessToken, accountID, content string, mediaURLs []string) (*PublishResult, error) {
	endpoint := fmt.Sprintf("%s/%s/feed", facebookGraphURL, accountID)

	payload := map[string]string{
		"message":      content,
		"access_token": accessToken,
	}
	if len(mediaURLs) > 0 {
		// a single attached photo posts through the photos edge instead
		endpoint = fmt.Sprintf("%s/%s/photos", facebookGraphURL, accountID)
		payload["url"] = mediaURLs[0]
		payload["caption"] = content
		delete(payload, "message")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("facebook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Platform: PlatformFacebook, StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	var result struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode facebook response: %w", err)
	}

	externalID := result.PostID
	if externalID == "" {
		externalID = result.ID
	}

	return &PublishResult{ExternalID: externalID}, nil
}
