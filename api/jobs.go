package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/fitly-client/models"
	"github.com/raushankrgupta/fitly-client/poller"
)

const analysisUploadPrefix = "analysis_inputs"

// SubmitAnalysis queues garment detection for image, which is either an
// http(s) URL or a local file path. Local files go through the configured
// uploader, or are sent as a multipart upload when there is none.
func (c *Client) SubmitAnalysis(ctx context.Context, image, description string) (models.JobSubmission, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return models.JobSubmission{}, errors.New("image is required")
	}

	var (
		p   *payload
		err error
	)
	switch {
	case isHTTPURL(image):
		p, err = jsonPayload(models.AnalysisRequest{ImageURL: image, Description: description})
	case c.uploader != nil:
		key, uploadErr := c.uploader.UploadFile(ctx, image, analysisUploadPrefix)
		if uploadErr != nil {
			return models.JobSubmission{}, fmt.Errorf("upload %s: %w", image, uploadErr)
		}
		p, err = jsonPayload(models.AnalysisRequest{ImageKey: key, Description: description})
	default:
		var fields []formField
		if description != "" {
			fields = append(fields, formField{name: "description", value: description})
		}
		p, err = multipartPayload(fields, []formFile{{field: "image", path: image}})
	}
	if err != nil {
		return models.JobSubmission{}, err
	}
	return c.submitJob(ctx, "/analysis", p)
}

// SubmitTryOn queues a virtual try-on of productID on the saved person.
func (c *Client) SubmitTryOn(ctx context.Context, productID, personID string) (models.JobSubmission, error) {
	if productID == "" || personID == "" {
		return models.JobSubmission{}, errors.New("product id and person id are required")
	}
	p, err := jsonPayload(models.TryOnRequest{ProductID: productID, PersonID: personID})
	if err != nil {
		return models.JobSubmission{}, err
	}
	return c.submitJob(ctx, "/try-on", p)
}

func (c *Client) submitJob(ctx context.Context, path string, p *payload) (models.JobSubmission, error) {
	var sub models.JobSubmission
	if err := c.do(ctx, http.MethodPost, path, p, &sub); err != nil {
		return models.JobSubmission{}, err
	}
	if sub.JobID == 0 {
		return models.JobSubmission{}, fmt.Errorf("%s: response has no job id", path)
	}
	return sub, nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Analysis returns a poller.Source over the analysis job endpoints.
func (c *Client) Analysis() poller.Source {
	return jobSource{client: c, prefix: "/analysis"}
}

// TryOns returns a poller.Source over the try-on job endpoints.
func (c *Client) TryOns() poller.Source {
	return jobSource{client: c, prefix: "/try-on"}
}

// Jobs returns the source for kind.
func (c *Client) Jobs(kind models.JobKind) (poller.Source, error) {
	switch kind {
	case models.JobKindAnalysis:
		return c.Analysis(), nil
	case models.JobKindTryOn:
		return c.TryOns(), nil
	default:
		return nil, fmt.Errorf("unknown job kind %q", kind)
	}
}

type jobSource struct {
	client *Client
	prefix string
}

func (s jobSource) Status(ctx context.Context, jobID int64) (models.JobStatus, error) {
	var st models.JobStatus
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d/status", s.prefix, jobID), nil, &st); err != nil {
		return models.JobStatus{}, err
	}
	if err := st.Status.Validate(); err != nil {
		s.client.logger.Printf("[API] job %d: %v", jobID, err)
	}
	return st, nil
}

func (s jobSource) Result(ctx context.Context, jobID int64) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d/result", s.prefix, jobID), nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// AwaitAnalysis polls an analysis job to completion and decodes its result.
// Unless opts says otherwise, an expired session or a 4xx status read ends
// the poll at once.
func (c *Client) AwaitAnalysis(ctx context.Context, jobID int64, opts poller.Options) (models.AnalysisResult, error) {
	opts.Kind = models.JobKindAnalysis
	if opts.Retryable == nil {
		opts.Retryable = Retryable
	}
	raw, err := poller.Poll(ctx, jobID, c.Analysis(), opts)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	var res models.AnalysisResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("decode analysis result: %w", err)
	}
	return res, nil
}

// AwaitTryOn polls a try-on job to completion and decodes its result.
func (c *Client) AwaitTryOn(ctx context.Context, jobID int64, opts poller.Options) (models.TryOn, error) {
	opts.Kind = models.JobKindTryOn
	if opts.Retryable == nil {
		opts.Retryable = Retryable
	}
	raw, err := poller.Poll(ctx, jobID, c.TryOns(), opts)
	if err != nil {
		return models.TryOn{}, err
	}
	var res models.TryOn
	if err := json.Unmarshal(raw, &res); err != nil {
		return models.TryOn{}, fmt.Errorf("decode try-on result: %w", err)
	}
	return res, nil
}
