// Package classify defines the signal-classification oracle contract
// (§1, §3) and a default HTTP/JSON-backed implementation, grounded on
// original_source/source/llm_communicator.py's analyze_module flow
// (prompt construction, clean_json_response markdown-fence stripping,
// validation of returned names against signal_width_data).
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/texerai/alf/internal/model"
	"golang.org/x/time/rate"
)

// Classifier is the external collaborator's interface: classify(module_source)
// -> {fuzz_candidates, control_signals}, treated as a pure function by the
// core (§1).
type Classifier interface {
	Classify(ctx context.Context, moduleName, moduleSource string) (model.ClassifyResult, error)
}

// HTTPClassifier is the default implementation, calling a remote HTTP
// endpoint. net/http and encoding/json are used directly here because no
// pack example wires a dedicated HTTP-client library for this call shape
// (see DESIGN.md).
type HTTPClassifier struct {
	Endpoint string
	Model    string
	Client   *http.Client
	Limiter  *TokenBudgetLimiter
}

// NewHTTPClassifier builds a classifier paced by a token-budget limiter
// (§5's "minimum inter-batch interval when cumulative tokens would exceed
// a threshold").
func NewHTTPClassifier(endpoint, modelName string, timeout time.Duration, tokenThreshold int, batchInterval time.Duration) *HTTPClassifier {
	return &HTTPClassifier{
		Endpoint: endpoint,
		Model:    modelName,
		Client:   &http.Client{Timeout: timeout},
		Limiter:  NewTokenBudgetLimiter(tokenThreshold, batchInterval),
	}
}

type classifyRequest struct {
	Model  string `json:"model"`
	Module string `json:"module_name"`
	Source string `json:"module_source"`
}

type classifyResponse struct {
	FuzzCandidates []model.FuzzCandidate `json:"fuzz_candidates"`
	Clock          string                `json:"clock"`
	Reset          string                `json:"reset"`
	Edge           string                `json:"edge"`
}

// Classify calls the remote oracle, paces itself via the token-budget
// limiter, and cleans markdown code fences from the response body the way
// clean_json_response does before parsing JSON.
func (c *HTTPClassifier) Classify(ctx context.Context, moduleName, moduleSource string) (model.ClassifyResult, error) {
	if err := c.Limiter.WaitN(ctx, estimateTokens(moduleSource)); err != nil {
		return model.ClassifyResult{}, fmt.Errorf("rate-limit wait: %w", err)
	}

	reqBody, err := json.Marshal(classifyRequest{Model: c.Model, Module: moduleName, Source: moduleSource})
	if err != nil {
		return model.ClassifyResult{}, fmt.Errorf("encoding classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return model.ClassifyResult{}, fmt.Errorf("building classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return model.ClassifyResult{}, fmt.Errorf("calling classification oracle: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ClassifyResult{}, fmt.Errorf("reading classify response: %w", err)
	}

	var parsed classifyResponse
	if err := json.Unmarshal(cleanJSONResponse(raw), &parsed); err != nil {
		return model.ClassifyResult{}, fmt.Errorf("parsing classify response: %w", err)
	}

	return model.ClassifyResult{
		FuzzCandidates: parsed.FuzzCandidates,
		Control: model.ControlSignals{
			Clock: parsed.Clock,
			Reset: parsed.Reset,
			Edge:  parsed.Edge,
		},
	}, nil
}

// cleanJSONResponse strips ```json ... ``` / ``` ... ``` markdown fences,
// grounded on llm_communicator.py's clean_json_response.
func cleanJSONResponse(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return []byte(strings.TrimSpace(s))
}

// estimateTokens is a rough word-count proxy used only to drive pacing
// decisions, not for billing accuracy.
func estimateTokens(source string) int {
	return len(strings.Fields(source))
}

// ValidateCandidates intersects the oracle's reported fuzz candidates
// with the declaring module's known signal names, dropping unknowns with
// a warning (§9's "Dynamic classification output must be validated"),
// grounded on analyze_module's "only include signals in the provided
// target list" filter.
func ValidateCandidates(result model.ClassifyResult, signalWidths map[string]int) (valid []model.FuzzCandidate, dropped []string) {
	for _, c := range result.FuzzCandidates {
		if _, ok := signalWidths[c.Name]; ok {
			valid = append(valid, c)
		} else {
			dropped = append(dropped, c.Name)
		}
	}
	return valid, dropped
}

// TokenBudgetLimiter wraps golang.org/x/time/rate.Limiter to provide the
// §5 pacing primitive: a minimum inter-batch interval once cumulative
// tokens exceed a threshold. This is a cooperative stall, not a timeout,
// replacing llm_communicator.py's manual time.sleep loop.
type TokenBudgetLimiter struct {
	limiter *rate.Limiter
}

// NewTokenBudgetLimiter builds a limiter that permits tokenThreshold
// tokens to accumulate before enforcing one batchInterval-spaced refill.
func NewTokenBudgetLimiter(tokenThreshold int, batchInterval time.Duration) *TokenBudgetLimiter {
	if tokenThreshold <= 0 {
		tokenThreshold = 1
	}
	r := rate.Every(batchInterval / time.Duration(tokenThreshold))
	return &TokenBudgetLimiter{limiter: rate.NewLimiter(r, tokenThreshold)}
}

// WaitN blocks, cooperatively, until n tokens' worth of budget is
// available. A request larger than the token threshold waits for the full
// threshold instead.
func (l *TokenBudgetLimiter) WaitN(ctx context.Context, n int) error {
	if n <= 0 {
		n = 1
	}
	if burst := l.limiter.Burst(); n > burst {
		n = burst
	}
	return l.limiter.WaitN(ctx, n)
}
