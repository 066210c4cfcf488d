package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RESTStore sends redis commands as JSON arrays to an HTTP endpoint,
// authenticated with a bearer token.
type RESTStore struct {
	client *resty.Client
}

type restReply struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func NewRESTStore(endpoint, token string, timeout time.Duration) *RESTStore {
	return &RESTStore{
		client: resty.New().
			SetBaseURL(strings.TrimRight(endpoint, "/")).
			SetAuthToken(token).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

func (s *RESTStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := s.do(ctx, "GET", key)
	if err != nil {
		return nil, false, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, false, nil
	}

	var value string
	if err := json.Unmarshal(result, &value); err != nil {
		return nil, false, fmt.Errorf("unexpected GET result: %w", err)
	}
	return []byte(value), true, nil
}

func (s *RESTStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	_, err := s.do(ctx, "SET", key, string(value), "EX", strconv.FormatInt(seconds, 10))
	return err
}

func (s *RESTStore) Close() error {
	return nil
}

func (s *RESTStore) do(ctx context.Context, args ...string) (json.RawMessage, error) {
	var reply restReply
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(args).
		SetResult(&reply).
		SetError(&reply).
		Post("/")
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", args[0], err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%s failed with status %d: %w", args[0], resp.StatusCode(), errors.New(reply.Error))
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s failed with status %d", args[0], resp.StatusCode())
	}
	return reply.Result, nil
}
