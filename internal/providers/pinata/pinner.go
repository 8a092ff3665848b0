// Package pinata pins JSON documents to IPFS through the Pinata API.
package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mcoot/triviastake/internal/services/ingestion"
)

// Config holds Pinata settings
type Config struct {
	JWT     string
	APIBase string
}

// Ensure Pinner implements ingestion.Pinner
var _ ingestion.Pinner = (*Pinner)(nil)

// Pinner uploads JSON documents and returns their content identifier
type Pinner struct {
	jwt        string
	apiBase    string
	httpClient *http.Client
}

// New creates a Pinner. A nil httpClient means http.DefaultClient.
func New(cfg Config, httpClient *http.Client) *Pinner {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Pinner{
		jwt:        cfg.JWT,
		apiBase:    strings.TrimRight(cfg.APIBase, "/"),
		httpClient: httpClient,
	}
}

type pinRequest struct {
	Content  any         `json:"pinataContent"`
	Metadata pinMetadata `json:"pinataMetadata"`
}

type pinMetadata struct {
	Name string `json:"name"`
}

// PinJSON uploads payload under name and returns its IPFS hash
func (p *Pinner) PinJSON(ctx context.Context, name string, payload any) (string, error) {
	body, err := json.Marshal(pinRequest{Content: payload, Metadata: pinMetadata{Name: name}})
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.jwt)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pin %s: %w", name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pin %s: status %d: %s", name, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	hash := gjson.GetBytes(respBody, "IpfsHash").String()
	if hash == "" {
		return "", errors.New("pin response has no IpfsHash")
	}
	return hash, nil
}
