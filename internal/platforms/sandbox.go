package platforms

import (
	"context"
	"fmt"
	"log/slog"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// sandboxPublisher wraps a real adapter and short-circuits it with a
// deterministic success so the whole pipeline can run without live
// credentials. Platform preconditions still apply: a post instagram would
// refuse in production is refused here too.
type sandboxPublisher struct {
	real Publisher
}

func NewSandboxPublisher(real Publisher) Publisher {
	return &sandboxPublisher{real: real}
}

func (s *sandboxPublisher) Platform() Platform {
	return s.real.Platform()
}

func (s *sandboxPublisher) Publish(ctx context.Context, accessToken, accountID, content string, mediaURLs []string) (*PublishResult, error) {
	if s.real.Platform() == PlatformInstagram && len(mediaURLs) == 0 {
		return nil, &PreconditionError{Platform: PlatformInstagram, Reason: "at least one media attachment is required"}
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	externalID := fmt.Sprintf("sandbox_%s_%s", s.real.Platform(), id)
	slog.Info("sandbox publish", "platform", string(s.real.Platform()), "external_id", externalID)

	return &PublishResult{ExternalID: externalID}, nil
}
