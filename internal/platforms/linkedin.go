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

const linkedinPostsURL = "https://api.linkedin.com/v2/ugcPosts"

type linkedinPublisher struct {
	client *http.Client
}

func NewLinkedinPublisher(client *http.Client) Publisher {
	return &linkedinPublisher{client: client}
}

func (l *linkedinPublisher) Platform() Platform {
	return PlatformLinkedin
}

func (l *linkedinPublisher) Publish(ctx context.Context, accessToken, accountID, content string, mediaURLs []string) (*PublishResult, error) {
	shareMedia := []map[string]interface{}{}
	category := "NONE"
	for _, u := range mediaURLs {
		category = "IMAGE"
		shareMedia = append(shareMedia, map[string]interface{}{
			"status": "READY",
			"media":  u,
		})
	}

	payload := map[string]interface{}{
		"author":         fmt.Sprintf("urn:li:person:%s", accountID),
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary": map[string]string{
					"text": content,
				},
				"shareMediaCategory": category,
				"media":              shareMedia,
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, linkedinPostsURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := l.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("linkedin request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Platform: PlatformLinkedin, StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	// linkedin returns the new urn both in the body and the x-restli-id header
	externalID := resp.Header.Get("X-RestLi-Id")

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && result.ID != "" {
		externalID = result.ID
	}

	return &PublishResult{ExternalID: externalID}, nil
}
