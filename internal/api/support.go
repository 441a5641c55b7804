package api

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/unitrack/internal/core"
)

// ContactRequest is a message to the support team.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,notblank"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,notblank,max=200"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

// ListFAQs returns the help entries. No token is needed.
func (c *Client) ListFAQs(ctx context.Context) ([]core.FAQ, error) {
	resp, err := c.Call(ctx, "support/faqs", CallOptions{Resource: SupportFamily})
	if err != nil {
		return nil, err
	}
	var faqs []core.FAQ
	if err := resp.DecodeFirst(&faqs, "faqs", "data"); err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	return faqs, nil
}

// SubmitContact sends a support message.
func (c *Client) SubmitContact(ctx context.Context, req ContactRequest) error {
	req.Email = normalizeEmail(req.Email)
	return c.postNoContent(ctx, "support/contact", req, Generic)
}
