package pushrelay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/MedTrack/internal/notify"
)

type stubNotifier struct {
	sub, title, body string
	calls            int
	err              error
}

func (s *stubNotifier) Notify(ctx context.Context, subscriptionID, title, body string, data map[string]any) (string, error) {
	s.calls++
	s.sub, s.title, s.body = subscriptionID, title, body
	if s.err != nil {
		return "", s.err
	}
	return `{"id":"n-1"}`, nil
}

func newServer(t *testing.T, n Notifier) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(n))
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url string, body any) (int, string) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url+"/notifica", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(out)
}

func TestRelayForwards(t *testing.T) {
	n := &stubNotifier{}
	ts := newServer(t, n)

	status, body := post(t, ts.URL, map[string]string{
		"oneSignalId":    "os-1",
		"subscriptionId": "sub-1",
		"titolo":         "Hi",
		"messaggio":      "Take aspirin",
	})

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":"n-1"}`, body)
	assert.Equal(t, "sub-1", n.sub)
	assert.Equal(t, "Hi", n.title)
	assert.Equal(t, "Take aspirin", n.body)
}

func TestRelayAcceptsLegacySubscriptionField(t *testing.T) {
	n := &stubNotifier{}
	ts := newServer(t, n)

	status, _ := post(t, ts.URL, map[string]string{
		"oneSignalId":             "os-1",
		"onesignalIdSubscription": "sub-legacy",
		"titolo":                  "Hi",
		"messaggio":               "Take aspirin",
	})

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "sub-legacy", n.sub)
}

func TestRelayRejectsIncompleteRequests(t *testing.T) {
	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{"no subscription", map[string]string{"oneSignalId": "os-1", "titolo": "t", "messaggio": "m"}, "Missing subscriptionId"},
		{"no onesignal id", map[string]string{"subscriptionId": "sub-1", "titolo": "t", "messaggio": "m"}, "Missing oneSignalId"},
		{"no title", map[string]string{"oneSignalId": "os-1", "subscriptionId": "sub-1", "messaggio": "m"}, "Missing titolo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &stubNotifier{}
			ts := newServer(t, n)

			status, body := post(t, ts.URL, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Contains(t, body, tt.want)
			assert.Zero(t, n.calls)
		})
	}
}

func TestRelayProviderFailure(t *testing.T) {
	n := &stubNotifier{err: errors.New("boom")}
	ts := newServer(t, n)

	status, _ := post(t, ts.URL, map[string]string{
		"oneSignalId":    "os-1",
		"subscriptionId": "sub-1",
		"titolo":         "Hi",
		"messaggio":      "Take aspirin",
	})
	assert.Equal(t, http.StatusInternalServerError, status)
}

// The relay client and relay server speak the same body.
func TestRelayRoundTripWithClient(t *testing.T) {
	n := &stubNotifier{}
	ts := newServer(t, n)

	relay := notify.NewRelay(ts.URL + "/notifica")
	msg := notify.Message{
		Title: "Time to take your medicine!",
		Body:  "It's time to take aspirin.",
	}
	msg.Recipient.Username = "anna"
	msg.Recipient.OneSignalID = "os-anna"
	msg.Recipient.SubscriptionID = "sub-anna"

	require.NoError(t, relay.Send(context.Background(), msg))
	assert.Equal(t, "sub-anna", n.sub)
}
