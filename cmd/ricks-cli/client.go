package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ricks/crypto"
	"ricks/rpc"
)

// client talks to a ricksd HTTP endpoint.
type client struct {
	endpoint string
	http     *http.Client
	key      *crypto.PrivateKey
	token    string
	now      func() time.Time
}

func newClient(endpoint string) *client {
	return &client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: 15 * time.Second},
		now:      time.Now,
	}
}

func (c *client) get(path string) (json.RawMessage, error) {
	req, err := http.NewRequest(http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// signed posts payload as the loaded key.
func (c *client) signed(path string, payload interface{}) (json.RawMessage, error) {
	if c.key == nil {
		return nil, fmt.Errorf("a keystore is required; pass --key")
	}
	body, req, err := c.newPost(path, payload)
	if err != nil {
		return nil, err
	}
	if err := rpc.SignRequest(req, body, c.key, c.now()); err != nil {
		return nil, err
	}
	return c.do(req)
}

// admin posts payload with the bearer token.
func (c *client) admin(path string, payload interface{}) (json.RawMessage, error) {
	if c.token == "" {
		return nil, fmt.Errorf("an admin token is required; pass --token or set %s", tokenEnv)
	}
	_, req, err := c.newPost(path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.do(req)
}

func (c *client) newPost(path string, payload interface{}) ([]byte, *http.Request, error) {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, err
		}
		body = encoded
	}
	req, err := http.NewRequest(http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return body, req, nil
}

func (c *client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var failure rpc.ErrorResult
		if json.Unmarshal(data, &failure) == nil && failure.Error != "" {
			if failure.Class != "" {
				return nil, fmt.Errorf("%s (%s, HTTP %d)", failure.Error, failure.Class, resp.StatusCode)
			}
			return nil, fmt.Errorf("%s (HTTP %d)", failure.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
