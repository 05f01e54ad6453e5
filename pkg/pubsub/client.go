package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/gcp"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// Client resolves short topic and subscription ids against the project and
// hands out one long-lived Publisher per topic.
type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// NewClient dials Pub/Sub and fails fast when a configured topic is missing.
func NewClient(ctx context.Context, gcpCfg config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcpCfg.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	raw, err := pubsub.NewClient(ctx, projectID, gcp.CloudOptions(gcpCfg)...)
	if err != nil {
		return nil, fmt.Errorf("dial pubsub: %w", err)
	}

	c := &Client{
		client:     raw,
		projectID:  projectID,
		cfg:        cfg,
		publishers: map[string]*pubsub.Publisher{},
	}
	if err := c.Ping(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "topics", topicNames(cfg)), "pubsub client initialized")
	}
	return c, nil
}

func (c *Client) ready() bool {
	return c != nil && c.client != nil
}

// Ping checks every configured topic exists.
func (c *Client) Ping(ctx context.Context) error {
	if !c.ready() {
		return errNotInitialized
	}
	for _, name := range topicNames(c.cfg) {
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{
			Topic: resourceName(c.projectID, "topics", name),
		})
		if err != nil {
			return lookupError("topic", name, err)
		}
	}
	return nil
}

// EnsureSubscription fails when the named subscription is missing. Workers
// call it at startup for the subscription they consume.
func (c *Client) EnsureSubscription(ctx context.Context, name string) error {
	if !c.ready() {
		return errNotInitialized
	}
	full := resourceName(c.projectID, "subscriptions", name)
	if full == "" {
		return fmt.Errorf("subscription %q not configured", name)
	}
	_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: full})
	if err != nil {
		return lookupError("subscription", name, err)
	}
	return nil
}

func lookupError(kind, name string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s %q does not exist", kind, name)
	}
	return fmt.Errorf("look up %s %q: %w", kind, name, err)
}

// Subscriber returns a handle for a subscription id or full resource name.
func (c *Client) Subscriber(name string) *pubsub.Subscriber {
	if !c.ready() {
		return nil
	}
	if full := resourceName(c.projectID, "subscriptions", name); full != "" {
		return c.client.Subscriber(full)
	}
	return nil
}

// AnalyticsSubscriber returns the subscriber the analytics worker drains.
func (c *Client) AnalyticsSubscriber() *pubsub.Subscriber {
	if !c.ready() {
		return nil
	}
	return c.Subscriber(c.cfg.AnalyticsSubscription)
}

// Publisher returns the shared publisher for a topic id or full resource
// name. Publishers batch internally, so callers must not create their own.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if !c.ready() {
		return nil
	}
	full := resourceName(c.projectID, "topics", name)
	if full == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if pub, ok := c.publishers[full]; ok {
		return pub
	}
	pub := c.client.Publisher(full)
	c.publishers[full] = pub
	return pub
}

// Close flushes every publisher before closing the connection.
func (c *Client) Close() error {
	if !c.ready() {
		return nil
	}
	c.mu.Lock()
	for full, pub := range c.publishers {
		pub.Stop()
		delete(c.publishers, full)
	}
	c.mu.Unlock()
	return c.client.Close()
}

func topicNames(cfg config.PubSubConfig) []string {
	var names []string
	for _, name := range []string{cfg.MarketplaceTopic, cfg.AnalyticsTopic} {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// resourceName expands a short id to projects/<p>/<kind>/<id>. Full names
// pass through; a blank id or project yields "".
func resourceName(projectID, kind, name string) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ""
	case strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+kind+"/"):
		return name
	}
	if projectID = strings.TrimSpace(projectID); projectID == "" {
		return ""
	}
	return "projects/" + projectID + "/" + kind + "/" + name
}
