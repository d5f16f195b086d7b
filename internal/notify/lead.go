package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/suar-net/leadintake/internal/model"
	"github.com/suar-net/leadintake/internal/sanitize"
)

// LeadNotifier emails the sales inbox about each accepted lead. Lead fields
// arrive HTML-escaped, so they go into the HTML part as-is and are unescaped
// for the plain-text part.
type LeadNotifier struct {
	sender EmailSender
	to     string
}

func NewLeadNotifier(sender EmailSender, to string) (*LeadNotifier, error) {
	if sender == nil {
		return nil, errors.New("notify: email sender is required")
	}
	if strings.TrimSpace(to) == "" {
		return nil, errors.New("notify: recipient address is required")
	}
	return &LeadNotifier{sender: sender, to: to}, nil
}

// Accept sends the notification for lead.
func (n *LeadNotifier) Accept(ctx context.Context, lead *model.Lead) error {
	if err := n.sender.Send(ctx, LeadEmail(n.to, lead)); err != nil {
		return fmt.Errorf("notify lead %s: %w", lead.ID, err)
	}
	return nil
}

// LeadEmail renders the notification for one lead.
func LeadEmail(to string, lead *model.Lead) EmailMessage {
	sub := lead.Submission
	bill := fmt.Sprintf("%.2f", sub.MonthlyBill)
	received := lead.ReceivedAt.Format("2006-01-02 15:04 MST")

	var text strings.Builder
	fmt.Fprintf(&text, "Name: %s\n", sanitize.Plain(sub.Name))
	fmt.Fprintf(&text, "Phone: %s\n", sanitize.Plain(sub.Phone))
	fmt.Fprintf(&text, "Monthly bill: %s\n", bill)
	fmt.Fprintf(&text, "Property type: %s\n", sanitize.Plain(string(sub.PropertyType)))
	fmt.Fprintf(&text, "Received: %s\n", received)
	fmt.Fprintf(&text, "Lead ID: %s\n", lead.ID)

	var body strings.Builder
	body.WriteString("<h2>New solar audit request</h2><ul>")
	fmt.Fprintf(&body, "<li><strong>Name:</strong> %s</li>", sub.Name)
	fmt.Fprintf(&body, "<li><strong>Phone:</strong> %s</li>", sub.Phone)
	fmt.Fprintf(&body, "<li><strong>Monthly bill:</strong> %s</li>", bill)
	fmt.Fprintf(&body, "<li><strong>Property type:</strong> %s</li>", sub.PropertyType)
	fmt.Fprintf(&body, "<li><strong>Received:</strong> %s</li>", received)
	body.WriteString("</ul>")

	return EmailMessage{
		To:         to,
		Subject:    "New solar audit request: " + sanitize.Plain(sub.Name),
		Body:       text.String(),
		HTML:       body.String(),
		Categories: []string{"lead-intake", strings.ToLower(sanitize.Plain(string(sub.PropertyType)))},
		Args:       map[string]string{"lead_id": lead.ID},
	}
}
