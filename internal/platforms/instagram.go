package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const instagramGraphURL = "https://graph.facebook.com/v19.0"

type instagramPublisher struct {
	client *http.Client
}

func NewInstagramPublisher(client *http.Client) Publisher {
	return &instagramPublisher{client: client}
}

func (ig *instagramPublisher) Platform() Platform {
	return PlatformInstagram
}

// Publish runs the two-step container flow: create a media container, then
// publish it. Instagram has no text-only posts, so a missing media URL is a
// precondition failure, not an API error.
func (ig *instagramPublisher) Publish(ctx context.Context, accessToken, accountID, content string, mediaURLs []string) (*PublishResult, error) {
	if len(mediaURLs) == 0 {
		return nil, &PreconditionError{Platform: PlatformInstagram, Reason: "at least one media attachment is required"}
	}

	containerID, err := ig.createContainer(ctx, accessToken, accountID, content, mediaURLs[0])
	if err != nil {
		return nil, err
	}

	mediaID, err := ig.publishContainer(ctx, accessToken, accountID, containerID)
	if err != nil {
		return nil, err
	}

	return &PublishResult{ExternalID: mediaID}, nil
}

func (ig *instagramPublisher) createContainer(ctx context.Context, accessToken, accountID, caption, imageURL string) (string, error) {
	data := url.Values{}
	data.Set("image_url", imageURL)
	data.Set("caption", caption)
	data.Set("access_token", accessToken)

	endpoint := fmt.Sprintf("%s/%s/media", instagramGraphURL, accountID)
	return ig.postForm(ctx, endpoint, data)
}

func (ig *instagramPublisher) publishContainer(ctx context.Context, accessToken, accountID, containerID string) (string, error) {
	data := url.Values{}
	data.Set("creation_id", containerID)
	data.Set("access_token", accessToken)

	endpoint := fmt.Sprintf("%s/%s/media_publish", instagramGraphURL, accountID)
	return ig.postForm(ctx, endpoint, data)
}

func (ig *instagramPublisher) postForm(ctx context.Context, endpoint string, data url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ig.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("instagram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return "", &APIError{Platform: PlatformInstagram, StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to decode instagram response: %w", err)
	}

	return result.ID, nil
}
