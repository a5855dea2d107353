package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Jdeww/Mesa-U-Hacks-2.0/config"
)

// Recognizer extracts text from a single re-encoded image. A nil Recognizer
// means no OCR backend is configured.
type Recognizer interface {
	Recognize(ctx context.Context, imageBytes []byte) (string, error)
}

// VisionService calls the Google Cloud Vision images:annotate endpoint with
// DOCUMENT_TEXT_DETECTION, which covers printed and handwritten input.
// The adapter does not retry; callers decide how to treat failures.
type VisionService struct {
	config     *config.OCRConfig
	httpClient *http.Client
}

type visionAnnotateRequest struct {
	Requests []visionRequest `json:"requests"`
}

type visionRequest struct {
	Image    visionImage     `json:"image"`
	Features []visionFeature `json:"features"`
}

type visionImage struct {
	Content string `json:"content"`
}

type visionFeature struct {
	Type string `json:"type"`
}

type visionAnnotateResponse struct {
	Responses []struct {
		FullTextAnnotation struct {
			Text string `json:"text"`
		} `json:"fullTextAnnotation"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

func NewVisionService(cfg *config.OCRConfig) *VisionService {
	return &VisionService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// Recognize sends one image to the recognition backend and returns the
// detected text. The input must already be a single-frame encoded image.
func (s *VisionService) Recognize(ctx context.Context, imageBytes []byte) (string, error) {
	reqBody := visionAnnotateRequest{
		Requests: []visionRequest{
			{
				Image:    visionImage{Content: base64.StdEncoding.EncodeToString(imageBytes)},
				Features: []visionFeature{{Type: "DOCUMENT_TEXT_DETECTION"}},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", OCRError("failed to marshal request", err)
	}

	url := fmt.Sprintf("%s/v1/images:annotate?key=%s",
		strings.TrimRight(s.config.Endpoint, "/"), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", OCRError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", OCRError("failed to send request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", OCRError("failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", OCRError(fmt.Sprintf("vision API returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var result visionAnnotateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", OCRError("failed to parse response", err)
	}

	if len(result.Responses) == 0 {
		return "", OCRError("empty response from vision API", nil)
	}
	if result.Responses[0].Error != nil {
		return "", OCRError(fmt.Sprintf("vision API error: %s", result.Responses[0].Error.Message), nil)
	}

	return result.Responses[0].FullTextAnnotation.Text, nil
}
