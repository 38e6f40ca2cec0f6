// Package contacts talks to the contact directory service.
package contacts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"servicebooking/internal/entities"
	apperrors "servicebooking/internal/errors"
)

const (
	opList   = "list contacts"
	opCreate = "create contact"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	// MaxAttempts bounds list requests. Creates are never retried.
	MaxAttempts int
	RetryDelay  time.Duration
	Log         *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, maxAttempts int, log *zap.Logger) *Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL:     baseURL,
		HTTPClient:  &http.Client{Timeout: timeout},
		MaxAttempts: maxAttempts,
		RetryDelay:  200 * time.Millisecond,
		Log:         log,
	}
}

// ListContacts fetches every contact. Transport failures and 5xx responses are
// retried up to MaxAttempts times.
func (c *Client) ListContacts(ctx context.Context) ([]entities.Contact, error) {
	var lastErr error
	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		list, err := c.listOnce(ctx)
		if err == nil {
			return list, nil
		}
		lastErr = err

		var ferr *apperrors.FetchError
		if !errors.As(err, &ferr) || !ferr.Retryable() || attempt == c.MaxAttempts {
			break
		}
		c.Log.Warn("retrying contact list", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, &apperrors.FetchError{Op: opList, Err: ctx.Err()}
		case <-time.After(c.RetryDelay * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}

func (c *Client) listOnce(ctx context.Context) ([]entities.Contact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/contacts", nil)
	if err != nil {
		return nil, &apperrors.FetchError{Op: opList, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	var list []entities.Contact
	if err := c.do(req, opList, http.StatusOK, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []entities.Contact{}
	}
	return list, nil
}

// CreateContact asks the directory to create a contact and returns it with the
// id the directory assigned.
func (c *Client) CreateContact(ctx context.Context, input entities.NewContact) (*entities.Contact, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, &apperrors.FetchError{Op: opCreate, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/contacts", bytes.NewReader(body))
	if err != nil {
		return nil, &apperrors.FetchError{Op: opCreate, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var created entities.Contact
	if err := c.do(req, opCreate, http.StatusCreated, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, &apperrors.FetchError{Op: opCreate, Err: errors.New("directory returned a contact without id")}
	}
	return &created, nil
}

func (c *Client) do(req *http.Request, op string, want int, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &apperrors.FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		io.Copy(io.Discard, resp.Body)
		return &apperrors.FetchError{Op: op, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperrors.FetchError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
