package embedding

import (
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps the OpenAI API client shared by the embedder and the answer
// generator. A non-empty baseURL points it at any OpenAI-compatible endpoint.
type Client struct {
	api *openai.Client
}

// NewClient creates the API client. The request timeout applies to every
// call so no network operation can hang past its deadline.
func NewClient(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key not set")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	api := openai.NewClient(opts...)
	return &Client{api: &api}, nil
}

// API returns the underlying OpenAI client for use in other packages
// (e.g. answer generation).
func (c *Client) API() *openai.Client {
	return c.api
}
