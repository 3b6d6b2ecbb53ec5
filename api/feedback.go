package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/raushankrgupta/fitly-client/models"
)

// SubmitFeedback sends a feedback message with optional attachments.
func (c *Client) SubmitFeedback(ctx context.Context, fb models.Feedback, attachments []string) error {
	if strings.TrimSpace(fb.Message) == "" {
		return errors.New("message is required")
	}
	fields := sortedFields(map[string]string{
		"name":          fb.Name,
		"email":         fb.Email,
		"country_code":  fb.CountryCode,
		"mobile_number": fb.MobileNumber,
		"message":       fb.Message,
		"contact_back":  strconv.FormatBool(fb.ContactBack),
	})
	files := make([]formFile, 0, len(attachments))
	for _, path := range attachments {
		files = append(files, formFile{field: "files", path: path})
	}
	p, err := multipartPayload(fields, files)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/feedback", p, nil)
}
