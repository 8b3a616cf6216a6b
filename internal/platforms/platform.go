package platforms

import (
	"context"
	"fmt"
	"net/http"
	"time"

	config "github.com/gcssytemsuser/socialai-backend/configs"
)

// Platform enumerates the publishing targets the engine knows about. The set
// is closed: adding a platform means adding a constant here, an adapter, and
// a registry entry.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformLinkedin  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
)

func All() []Platform {
	return []Platform{PlatformFacebook, PlatformLinkedin, PlatformTwitter, PlatformInstagram}
}

func Parse(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformFacebook, PlatformLinkedin, PlatformTwitter, PlatformInstagram:
		return Platform(s), nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// PublishResult is the normalized outcome of a successful adapter call.
type PublishResult struct {
	ExternalID string
}

// Publisher submits one piece of content to one external platform on behalf
// of one account. Implementations encapsulate their own payload shape, auth
// header and endpoint.
type Publisher interface {
	Platform() Platform
	Publish(ctx context.Context, accessToken, accountID, content string, mediaURLs []string) (*PublishResult, error)
}

// Registry maps each known platform to its configured Publisher. Built once
// at startup; in sandbox mode every adapter is wrapped in the sandbox
// decorator so the pipeline runs without live credentials.
type Registry struct {
	publishers map[Platform]Publisher
}

func NewRegistry(cfg config.Config) *Registry {
	client := &http.Client{Timeout: 30 * time.Second}

	publishers := make(map[Platform]Publisher)
	for _, p := range []Publisher{
		NewFacebookPublisher(client),
		NewLinkedinPublisher(client),
		NewTwitterPublisher(client),
		NewInstagramPublisher(client),
	} {
		if cfg.SandboxMode {
			publishers[p.Platform()] = NewSandboxPublisher(p)
		} else {
			publishers[p.Platform()] = p
		}
	}

	return &Registry{publishers: publishers}
}

// NewRegistryFromPublishers builds a registry from explicit publishers,
// for callers that stub individual platforms.
func NewRegistryFromPublishers(pubs ...Publisher) *Registry {
	publishers := make(map[Platform]Publisher, len(pubs))
	for _, p := range pubs {
		publishers[p.Platform()] = p
	}
	return &Registry{publishers: publishers}
}

func (r *Registry) Lookup(p Platform) (Publisher, bool) {
	pub, ok := r.publishers[p]
	return pub, ok
}
