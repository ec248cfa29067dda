package providers

import (
	"context"
	"errors"
	"net"
	"net/url"
	"regexp"
	"strconv"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/raulisai/Gateway-IA/src/models"
)

// langchaingo folds the upstream status into the error text.
var statusPattern = regexp.MustCompile(`status code: (\d{3})`)

// upstreamStatus extracts the HTTP status carried by an SDK error, or 0.
func upstreamStatus(err error) int {
	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		return openaiErr.HTTPStatusCode
	}
	var requestErr *openai.RequestError
	if errors.As(err, &requestErr) {
		return requestErr.HTTPStatusCode
	}
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return genaiErr.Code
	}
	var genaiPtr *genai.APIError
	if errors.As(err, &genaiPtr) {
		return genaiPtr.Code
	}
	if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
		status, _ := strconv.Atoi(m[1])
		return status
	}
	return 0
}

// Classify turns an adapter error into a *models.Error. Cancellation by the
// caller is passed through untouched.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	var gwErr *models.Error
	if errors.As(err, &gwErr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if status := upstreamStatus(err); status > 0 {
		return models.NewUpstreamError(provider, status, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewTransientError(provider, "upstream call timed out", err)
	}
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return models.NewTransientError(provider, "upstream unreachable", err)
	}
	return models.NewFatalError(provider, "upstream call failed", err)
}
