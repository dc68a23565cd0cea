package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const requestTimeout = 30 * time.Second

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(rpcServer, token string) (*apiClient, error) {
	if rpcServer == "" {
		return nil, errors.New("set rpcserver with `config set rpcserver`")
	}
	if !strings.HasPrefix(rpcServer, "http://") &&
		!strings.HasPrefix(rpcServer, "https://") {
		rpcServer = "http://" + rpcServer
	}
	return &apiClient{
		baseURL: strings.TrimRight(rpcServer, "/"),
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
	}, nil
}

// getTraderClient returns a client authenticated with the trader token.
func getTraderClient() (*apiClient, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	token := state["token"]
	if token == "" {
		return nil, errors.New("set token with `config set token` or `token --save`")
	}
	return newAPIClient(state["rpcserver"], token)
}

// getOperatorClient returns a client authenticated with the operator token.
func getOperatorClient() (*apiClient, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	return newAPIClient(state["rpcserver"], state["operator_token"])
}

func (c *apiClient) get(path string, query url.Values) ([]byte, error) {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	return c.do(http.MethodGet, path, nil)
}

func (c *apiClient) post(path string, body interface{}) ([]byte, error) {
	return c.do(http.MethodPost, path, body)
}

func (c *apiClient) delete(path string) ([]byte, error) {
	return c.do(http.MethodDelete, path, nil)
}

func (c *apiClient) do(method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to reach swapd: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s (%d)", apiErr.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return respBody, nil
}
