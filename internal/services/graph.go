package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/desertthunder/reelx/internal/shared"
)

const graphSuccessMessage = "Graph executed successfully"

// GraphService runs deployed graphs on the graph-execution API.
type GraphService struct {
	baseURL      string
	apiKey       string
	deploymentID string
	httpClient   *http.Client
}

// NewGraphService creates a [GraphService] from cfg. A nil client gets a 60 second timeout.
func NewGraphService(cfg shared.GraphConfig, client *http.Client) (*GraphService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: graph api_key", shared.ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: graph base_url", shared.ErrMissingConfig)
	}

	return &GraphService{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		deploymentID: cfg.DeploymentID,
		httpClient:   newHTTPClient(client, 0),
	}, nil
}

type graphRequest struct {
	ID           string  `json:"id"`
	DeploymentID string  `json:"deploymentId"`
	Prompt       string  `json:"prompt"`
	ChatHistory  []any   `json:"chatHistory"`
	ProjectID    *string `json:"projectId"`
}

// GraphResult is the body returned by a graph run.
type GraphResult struct {
	Message string `json:"message"`
	Result  struct {
		NodeOutputs  map[string]json.RawMessage `json:"node_outputs"`
		ExecutionLog []string                   `json:"execution_log"`
	} `json:"result"`
}

// Output returns the text produced by nodeID. String outputs are unquoted; other JSON values are returned verbatim.
func (r *GraphResult) Output(nodeID string) (string, bool) {
	raw, ok := r.Result.NodeOutputs[nodeID]
	if !ok {
		return "", false
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, true
	}
	return string(raw), true
}

// Outputs returns every node output keyed by node id.
func (r *GraphResult) Outputs() map[string]string {
	out := make(map[string]string, len(r.Result.NodeOutputs))
	for id := range r.Result.NodeOutputs {
		out[id], _ = r.Output(id)
	}
	return out
}

// NodeIDs returns the output node ids in sorted order.
func (r *GraphResult) NodeIDs() []string {
	ids := make([]string, 0, len(r.Result.NodeOutputs))
	for id := range r.Result.NodeOutputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Run executes graphID with prompt and returns its outputs.
//
// Any message other than the success message is reported as a failed run.
func (g *GraphService) Run(ctx context.Context, graphID, prompt string) (*GraphResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is empty", shared.ErrInvalidInput)
	}

	payload := graphRequest{
		ID:           graphID,
		DeploymentID: g.deploymentID,
		Prompt:       prompt,
		ChatHistory:  []any{},
	}

	req, err := newJSONRequest(ctx, http.MethodPost, g.baseURL+"/graphs/run", payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "ApiKey "+g.apiKey)

	body, err := send(g.httpClient, "graph", req)
	if err != nil {
		return nil, err
	}

	var result GraphResult
	if err := decode("graph", body, &result); err != nil {
		return nil, err
	}

	if result.Message != graphSuccessMessage {
		return nil, fmt.Errorf("%w: graph %s did not execute successfully: %s", shared.ErrAPIRequest, graphID, result.Message)
	}

	return &result, nil
}
