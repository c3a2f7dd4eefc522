package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/Karshmistry/CrimAII/internal/config"
)

const (
	defaultDeepFaceURL   = "http://localhost:5005"
	defaultDeepFaceModel = "VGG-Face"
)

func init() {
	Register("deepface", func(cfg *config.OracleConfig) (Oracle, error) {
		return NewDeepFaceClient(cfg), nil
	})
}

// DeepFaceClient calls the /verify endpoint of a DeepFace API server.
type DeepFaceClient struct {
	baseURL          string
	model            string
	detector         string
	enforceDetection bool
	client           *http.Client
}

// NewDeepFaceClient creates a new DeepFace API client
func NewDeepFaceClient(cfg *config.OracleConfig) *DeepFaceClient {
	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = defaultDeepFaceURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultDeepFaceModel
	}
	return &DeepFaceClient{
		baseURL:          strings.TrimSuffix(baseURL, "/"),
		model:            model,
		detector:         cfg.Detector,
		enforceDetection: cfg.EnforceDetection,
		client:           &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the oracle name including the model.
func (c *DeepFaceClient) Name() string {
	return "deepface/" + c.model
}

type verifyRequest struct {
	Img1Path         string `json:"img1_path"`
	Img2Path         string `json:"img2_path"`
	ModelName        string `json:"model_name"`
	DetectorBackend  string `json:"detector_backend,omitempty"`
	EnforceDetection bool   `json:"enforce_detection"`
}

type verifyResponse struct {
	Verified  bool    `json:"verified"`
	Distance  float64 `json:"distance"`
	Threshold float64 `json:"threshold"`
	Model     string  `json:"model"`
	Error     string  `json:"error"`
}

// dataURI reads an image file and encodes it the way the DeepFace API accepts inline images.
func dataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mime := http.DetectContentType(data)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Verify asks the DeepFace server whether both images show the same person.
func (c *DeepFaceClient) Verify(ctx context.Context, probePath, candidatePath string) (Verdict, error) {
	probe, err := dataURI(probePath)
	if err != nil {
		return Verdict{}, fmt.Errorf("reading probe: %w", err)
	}
	candidate, err := dataURI(candidatePath)
	if err != nil {
		return Verdict{}, candidateFault("reading %s: %v", candidatePath, err)
	}

	payload, err := json.Marshal(verifyRequest{
		Img1Path:         probe,
		Img2Path:         candidate,
		ModelName:        c.model,
		DetectorBackend:  c.detector,
		EnforceDetection: c.enforceDetection,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(payload))
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		return Verdict{}, candidateFault("%s rejected (status %d): %s", candidatePath, resp.StatusCode, truncate(body))
	case resp.StatusCode != http.StatusOK:
		return Verdict{}, fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(body))
	}

	var vr verifyResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return Verdict{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if vr.Error != "" {
		return Verdict{}, candidateFault("%s: %s", candidatePath, vr.Error)
	}

	model := vr.Model
	if model == "" {
		model = c.model
	}
	return Verdict{Verified: vr.Verified, Distance: vr.Distance, Threshold: vr.Threshold, Model: model}, nil
}

func truncate(body []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
