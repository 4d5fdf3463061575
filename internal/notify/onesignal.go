package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// OneSignal sends push notifications through the OneSignal REST API.
type OneSignal struct {
	client *resty.Client
	url    string
	appID  string
}

type oneSignalPayload struct {
	AppID                  string            `json:"app_id"`
	IncludeSubscriptionIDs []string          `json:"include_subscription_ids"`
	Headings               map[string]string `json:"headings"`
	Contents               map[string]string `json:"contents"`
	Data                   map[string]any    `json:"data,omitempty"`
	IdempotencyKey         string            `json:"idempotency_key"`
}

// NewOneSignal builds a client. retries is the number of transport-level
// retries resty performs on top of the first attempt.
func NewOneSignal(url, appID, apiKey string, retries int) *OneSignal {
	client := resty.New().
		SetTimeout(10*time.Second).
		SetRetryCount(retries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(3*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", "Key "+apiKey)

	return &OneSignal{client: client, url: url, appID: appID}
}

// Notify posts one notification to a subscription and returns the
// provider's response body.
func (o *OneSignal) Notify(ctx context.Context, subscriptionID, title, body string, data map[string]any) (string, error) {
	payload := oneSignalPayload{
		AppID:                  o.appID,
		IncludeSubscriptionIDs: []string{subscriptionID},
		Headings:               map[string]string{"en": title},
		Contents:               map[string]string{"en": body},
		Data:                   data,
		IdempotencyKey:         uuid.NewString(),
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(o.url)
	if err != nil {
		return "", fmt.Errorf("%w: onesignal: %v", ErrDispatch, err)
	}
	if resp.IsError() {
		return resp.String(), fmt.Errorf("%w: onesignal status %d: %s", ErrDispatch, resp.StatusCode(), resp.String())
	}
	return resp.String(), nil
}

func (o *OneSignal) Send(ctx context.Context, msg Message) error {
	if err := msg.validatePush(); err != nil {
		return err
	}
	_, err := o.Notify(ctx, msg.Recipient.SubscriptionID, msg.Title, msg.Body, msg.Metadata)
	return err
}
