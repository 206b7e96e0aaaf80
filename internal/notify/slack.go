package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SlackNotifier posts notifications to an incoming-webhook URL. An
// empty URL disables it, so callers can wire it unconditionally.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// slackPayload is the webhook wire format: the title as the message
// text plus one colored attachment carrying the body.
type slackPayload struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color  string `json:"color"`
	Text   string `json:"text"`
	Footer string `json:"footer,omitempty"`
}

// Send posts the notification, mapping its type onto Slack's
// attachment colors (good/warning/danger, info blue otherwise).
func (s *SlackNotifier) Send(n Notification) error {
	if s.webhookURL == "" {
		return nil
	}

	color := "#439FE0"
	switch n.Type {
	case NotifySuccess:
		color = "good"
	case NotifyWarning:
		color = "warning"
	case NotifyError:
		color = "danger"
	}

	payload, err := json.Marshal(slackPayload{
		Text: n.Title,
		Attachments: []slackAttachment{
			{Color: color, Text: n.Message, Footer: "changetrack"},
		},
	})
	if err != nil {
		return err
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	return nil
}
