package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/pkg/clients"
)

const webhookPath = "/api/notifications"

// WebhookPublisher posts notification batches to a push gateway over HTTP.
type WebhookPublisher struct {
	client clients.HTTPClientI
	url    string
}

func NewWebhookPublisher(client clients.HTTPClientI, address string) *WebhookPublisher {
	return &WebhookPublisher{client: client, url: strings.TrimRight(address, "/") + webhookPath}
}

func (p *WebhookPublisher) Publish(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	body, err := json.Marshal(notifications)
	if err != nil {
		return fmt.Errorf("encode notifications: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	status, _, err := p.client.Post(ctx, p.url, headers, body)
	if err != nil {
		return fmt.Errorf("push gateway request: %w", err)
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return fmt.Errorf("push gateway returned status %d", status)
	}
	return nil
}
