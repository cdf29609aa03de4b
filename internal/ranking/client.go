// Package ranking generates AI team evaluations from scouting reports using
// an OpenAI-compatible chat completions API.
package ranking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/oakrobotics/scoutbase/internal/domain"
	"github.com/oakrobotics/scoutbase/pkg/httpclient"
)

const systemPrompt = `You are an AI scouting analyst for a FIRST Robotics Competition event. Evaluate every team in the provided scouting reports for alliance selection and match strategy. Alliances score by delivering game pieces into their HUB during the autonomous and teleoperated periods and by climbing the tower during endgame. Autonomous actions are high impact, endgame climbs frequently decide matches, and fouls award points to the opponents. Our robot travels over the bump; teams that fit under the trench reduce congestion and are situationally valuable. Weight playoff matches more heavily than qualification matches, use match numbers to spot trends, and treat repeated major fouls as a strong negative signal. Use the notes fields to adjust evaluations where numeric data is incomplete. For every team output a score in [0,1] for expected match impact, a confidence in [0,1] for how reliable that score is, and a short overview with key strengths and weaknesses. Base everything strictly on the provided data; never invent missing information. Respond with a JSON object of the form {"rankings":[{"teamNumber":1234,"score":0.5,"confidence":0.5,"overview":"..."}]} and nothing else.`

// httpDoer is the slice of the circuit-breaker client the ranking client
// needs.
type httpDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Config holds the connection settings for the chat completions API.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	http   httpDoer
	cfg    Config
	logger *slog.Logger
}

// NewClient creates a ranking client. The http argument is normally a
// httpclient.CircuitBreakerClient so repeated upstream failures shed load.
func NewClient(http httpDoer, cfg Config, logger *slog.Logger) *Client {
	return &Client{http: http, cfg: cfg, logger: logger}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Temperature    float64       `json:"temperature"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type rankingsPayload struct {
	Rankings []domain.Ranking `json:"rankings"`
}

// Rank sends all reports to the model and parses the returned evaluations.
func (c *Client) Rank(ctx context.Context, reports []domain.Report) ([]domain.Ranking, error) {
	reportJSON, err := json.Marshal(reports)
	if err != nil {
		return nil, fmt.Errorf("marshal reports: %w", err)
	}

	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Temperature: 0.1,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(reportJSON)},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	url := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completions request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "chat completions")
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("chat response contained no choices")
	}

	var parsed rankingsPayload
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}

	for _, r := range parsed.Rankings {
		if r.Score < 0 || r.Score > 1 || r.Confidence < 0 || r.Confidence > 1 {
			return nil, fmt.Errorf("model output out of range for team %d", r.TeamNumber)
		}
	}

	c.logger.DebugContext(ctx, "rankings generated",
		slog.Int("teams", len(parsed.Rankings)),
		slog.Int("reports", len(reports)),
	)
	return parsed.Rankings, nil
}
