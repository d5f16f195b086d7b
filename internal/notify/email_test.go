package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suar-net/leadintake/internal/model"
	"github.com/suar-net/leadintake/pkg/logging"
)

type capturingSender struct {
	sent []EmailMessage
	err  error
}

func (c *capturingSender) Send(_ context.Context, msg EmailMessage) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{FromEmail: "leads@example.com"}, nil))
}

func TestNewSendGridSender_FromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "leads@example.com"}, logging.NewNop())
	require.NotNil(t, sender)
	assert.Equal(t, "Solar Leads", sender.from.Name)

	sender = NewSendGridSender(SendGridConfig{APIKey: "test-key", FromName: "Sunrise Solar"}, logging.NewNop())
	require.NotNil(t, sender)
	assert.Equal(t, "Sunrise Solar", sender.from.Name)
}

func TestSendGridSender_SendWithoutClient(t *testing.T) {
	var sender *SendGridSender
	assert.ErrorIs(t, sender.Send(context.Background(), EmailMessage{To: "sales@example.com"}), ErrSenderNotConfigured)
	assert.ErrorIs(t, (&SendGridSender{}).Send(context.Background(), EmailMessage{To: "sales@example.com"}), ErrSenderNotConfigured)
}

func TestSendGridSender_Compose(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "leads@example.com"}, logging.NewNop())
	require.NotNil(t, sender)

	m := sender.compose(EmailMessage{
		To:         "sales@example.com",
		ToName:     "Sales",
		ReplyTo:    "asha@example.com",
		Subject:    "New solar audit request: Asha Rao",
		Body:       "plain",
		HTML:       "<p>html</p>",
		Categories: []string{"lead-intake", "residential"},
		Args:       map[string]string{"lead_id": "lead-1"},
	})

	assert.Equal(t, "leads@example.com", m.From.Address)
	assert.Equal(t, "Solar Leads", m.From.Name)
	assert.Equal(t, "New solar audit request: Asha Rao", m.Subject)
	require.Len(t, m.Personalizations, 1)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "sales@example.com", m.Personalizations[0].To[0].Address)
	assert.Equal(t, map[string]string{"lead_id": "lead-1"}, m.Personalizations[0].CustomArgs)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
	assert.Equal(t, "asha@example.com", m.ReplyTo.Address)
	assert.Equal(t, []string{"lead-intake", "residential"}, m.Categories)
}

func TestSendGridSender_ComposePlainOnly(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key"}, logging.NewNop())

	m := sender.compose(EmailMessage{To: "sales@example.com", Body: "plain"})

	require.Len(t, m.Content, 1)
	assert.Nil(t, m.ReplyTo)
	assert.Empty(t, m.Categories)
}

func TestLogSender_Send(t *testing.T) {
	assert.NoError(t, NewLogSender(logging.NewNop()).Send(context.Background(), EmailMessage{To: "sales@example.com"}))
}

func TestNewLeadNotifier_RequiresSenderAndRecipient(t *testing.T) {
	_, err := NewLeadNotifier(nil, "sales@example.com")
	assert.Error(t, err)

	_, err = NewLeadNotifier(&capturingSender{}, "  ")
	assert.Error(t, err)
}

func TestLeadNotifier_Accept(t *testing.T) {
	sender := &capturingSender{}
	n, err := NewLeadNotifier(sender, "sales@example.com")
	require.NoError(t, err)

	lead := &model.Lead{
		ID: "lead-7",
		Submission: model.LeadSubmission{
			Name:         "O&#39;Brien &amp; Sons",
			Phone:        "+919876543210",
			MonthlyBill:  12500.5,
			PropertyType: model.PropertyCommercial,
		},
		ReceivedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, n.Accept(context.Background(), lead))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "sales@example.com", msg.To)
	assert.Equal(t, "New solar audit request: O'Brien & Sons", msg.Subject)
	assert.Contains(t, msg.Body, "Name: O'Brien & Sons\n")
	assert.Contains(t, msg.Body, "Monthly bill: 12500.50\n")
	assert.Contains(t, msg.Body, "Lead ID: lead-7\n")
	assert.Contains(t, msg.HTML, "O&#39;Brien &amp; Sons")
	assert.Contains(t, msg.HTML, "Commercial")
	assert.Equal(t, []string{"lead-intake", "commercial"}, msg.Categories)
	assert.Equal(t, map[string]string{"lead_id": "lead-7"}, msg.Args)
}

func TestLeadNotifier_AcceptWrapsSendError(t *testing.T) {
	sendErr := errors.New("quota exceeded")
	n, err := NewLeadNotifier(&capturingSender{err: sendErr}, "sales@example.com")
	require.NoError(t, err)

	err = n.Accept(context.Background(), &model.Lead{ID: "lead-8"})
	assert.ErrorIs(t, err, sendErr)
	assert.Contains(t, err.Error(), "lead-8")
}
