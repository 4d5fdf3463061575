package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// RelayRequest is the body accepted by the push relay endpoint.
type RelayRequest struct {
	OneSignalID             string         `json:"oneSignalId"`
	SubscriptionID          string         `json:"subscriptionId,omitempty"`
	OneSignalIDSubscription string         `json:"onesignalIdSubscription,omitempty"`
	Title                   string         `json:"titolo"`
	Message                 string         `json:"messaggio"`
	Data                    map[string]any `json:"data"`
}

// Subscription returns whichever subscription field the client filled.
func (r *RelayRequest) Subscription() string {
	if r.SubscriptionID != "" {
		return r.SubscriptionID
	}
	return r.OneSignalIDSubscription
}

// Relay hands notifications to an external push relay which owns the
// provider credentials.
type Relay struct {
	client *resty.Client
	url    string
}

func NewRelay(url string) *Relay {
	client := resty.New().
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Relay{client: client, url: url}
}

func (r *Relay) Send(ctx context.Context, msg Message) error {
	if err := msg.validatePush(); err != nil {
		return err
	}

	data := msg.Metadata
	if data == nil {
		data = map[string]any{}
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(RelayRequest{
			OneSignalID:    msg.Recipient.OneSignalID,
			SubscriptionID: msg.Recipient.SubscriptionID,
			Title:          msg.Title,
			Message:        msg.Body,
			Data:           data,
		}).
		Post(r.url)
	if err != nil {
		return fmt.Errorf("%w: relay: %v", ErrDispatch, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: relay status %d: %s", ErrDispatch, resp.StatusCode(), resp.String())
	}
	return nil
}
