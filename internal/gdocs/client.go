// Package gdocs fetches tafsir documents from the Google Docs API.
package gdocs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/dgallion1/tafsirgest/internal/doctree"
	"github.com/dgallion1/tafsirgest/internal/parser"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Client reads documents through the Docs API.
type Client struct {
	svc *docs.Service
}

// NewClient creates a Client. With no options it uses ClientOptionsFromEnv.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	if len(opts) == 0 {
		opts = ClientOptionsFromEnv()
	}
	opts = append([]option.ClientOption{option.WithScopes(docs.DocumentsReadonlyScope)}, opts...)
	svc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ClientOptionsFromEnv reads credentials from GOOGLE_APPLICATION_CREDENTIALS_JSON
// or GOOGLE_APPLICATION_CREDENTIALS. A value starting with "{" is inline JSON,
// anything else is a file path. Nil means application default credentials.
func ClientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return CredentialOptions(creds)
}

// CredentialOptions turns a credentials value into client options.
func CredentialOptions(creds string) []option.ClientOption {
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

// Get returns the raw Docs API document.
func (c *Client) Get(ctx context.Context, documentID string) (*docs.Document, error) {
	if documentID == "" {
		return nil, errors.New("get document: empty document id")
	}
	doc, err := c.svc.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		return nil, classify(documentID, err)
	}
	return doc, nil
}

// Fetch returns the document's blocks and title.
func (c *Client) Fetch(ctx context.Context, documentID string) (doctree.Blocks, string, error) {
	doc, err := c.Get(ctx, documentID)
	if err != nil {
		return nil, "", err
	}
	if doc.Body == nil {
		return nil, "", fmt.Errorf("get document %s: response has no body", documentID)
	}
	return parser.FromGoogleDoc(doc), doc.Title, nil
}

func classify(documentID string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			return &RetryableError{StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
		}
		return fmt.Errorf("get document %s: status %d: %w", documentID, apiErr.Code, err)
	}
	return fmt.Errorf("get document %s: %w", documentID, err)
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func (e *RetryableError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
