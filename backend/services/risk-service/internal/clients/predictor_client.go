package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"driverisk/backend/services/risk-service/internal/models"
)

// PredictorClient calls the external ML risk predictor.
type PredictorClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewPredictorClient returns client wrapper with bounded request timeout.
func NewPredictorClient(baseURL string, timeout time.Duration, logger *zap.Logger) *PredictorClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PredictorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Predict posts the feature vector and returns the predicted risk label with
// confidence. Any transport failure or non-2xx status is an explicit error;
// the client never substitutes a default prediction.
func (c *PredictorClient) Predict(ctx context.Context, in models.FeatureVector) (models.Prediction, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return models.Prediction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/predict", c.baseURL), bytes.NewReader(data))
	if err != nil {
		return models.Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("predictor request failed", zap.Error(err))
		return models.Prediction{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("predictor returned non-success", zap.Int("status", resp.StatusCode))
		return models.Prediction{}, fmt.Errorf("predictor returned status %d", resp.StatusCode)
	}

	var prediction models.Prediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return models.Prediction{}, fmt.Errorf("decode predictor response: %w", err)
	}
	return prediction, nil
}
