package playground

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const routePrefix = "/twirp/challenge.SuiChallenge/"

// HTTPClient talks to a challenge server over its twirp JSON routes
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the server at baseURL
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *HTTPClient) ChallengeInfo(ctx context.Context) (Info, error) {
	var info Info
	err := c.call(ctx, "GetChallengeInfo", "", struct{}{}, &info)
	return info, err
}

func (c *HTTPClient) NewPlayground(ctx context.Context) (Playground, error) {
	var pg Playground
	err := c.call(ctx, "NewPlayground", "", struct{}{}, &pg)
	return pg, err
}

func (c *HTTPClient) DeployContract(ctx context.Context, token string) (Contract, error) {
	var contract Contract
	err := c.call(ctx, "DeployContract", token, struct{}{}, &contract)
	return contract, err
}

func (c *HTTPClient) Flag(ctx context.Context, token, txHash string) (string, error) {
	var resp struct {
		Flag string `json:"flag"`
	}
	req := struct {
		TxHash string `json:"tx_hash"`
	}{TxHash: txHash}
	if err := c.call(ctx, "GetFlag", token, req, &resp); err != nil {
		return "", err
	}
	return resp.Flag, nil
}

func (c *HTTPClient) SourceCode(ctx context.Context) (map[string]string, error) {
	var resp struct {
		Source map[string]string `json:"source"`
	}
	if err := c.call(ctx, "GetSourceCode", "", struct{}{}, &resp); err != nil {
		return nil, err
	}
	if resp.Source == nil {
		resp.Source = map[string]string{}
	}
	return resp.Source, nil
}

func (c *HTTPClient) call(ctx context.Context, method, token string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+routePrefix+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	if resp.StatusCode != http.StatusOK {
		twerr := &Error{Status: resp.StatusCode}
		if err := json.Unmarshal(data, twerr); err != nil || twerr.Code == "" {
			twerr.Code = "internal"
			twerr.Msg = strings.TrimSpace(string(data))
		}
		return twerr
	}
	return json.Unmarshal(data, out)
}
