// Package inference talks to the external ML inference service: the crop
// recommender (JSON) and the leaf-disease classifier (multipart image).
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/krishi-gateway/internal/apierror"
)

// maxResponseSize caps how much of a downstream body is buffered.
const maxResponseSize = 8 << 20

const (
	CallCrop    = "crop_recommend"
	CallDisease = "disease_detect"
)

// Recorder receives one observation per downstream call.
type Recorder interface {
	ObserveInference(call, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveInference(string, string, time.Duration) {}

type Config struct {
	CropURL    string
	DiseaseURL string
	// Timeout bounds each call; zero means no client-side limit.
	Timeout time.Duration
}

type Client struct {
	httpClient *http.Client
	cropURL    string
	diseaseURL string
	logger     *zap.Logger
	recorder   Recorder
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cropURL:    cfg.CropURL,
		diseaseURL: cfg.DiseaseURL,
		logger:     zap.NewNop(),
		recorder:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CropFeatures is the soil and climate vector the recommender expects.
type CropFeatures struct {
	N           float64 `json:"N"`
	P           float64 `json:"P"`
	K           float64 `json:"K"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PH          float64 `json:"ph"`
	Rainfall    float64 `json:"rainfall"`
}

type CropScore struct {
	Crop       string  `json:"crop"`
	Confidence float64 `json:"confidence"`
}

type CropRecommendation struct {
	Status   string      `json:"status"`
	TopCrops []CropScore `json:"top_3_crops"`
}

// Detection is the classifier's answer, kept as raw bytes so it can be
// relayed unchanged.
type Detection struct {
	ContentType string
	Body        []byte
}

// RecommendCrop makes a single POST to the crop recommender. Non-2xx answers
// come back as apierror downstream failures carrying the response body.
func (c *Client) RecommendCrop(ctx context.Context, features CropFeatures) (CropRecommendation, error) {
	payload, err := json.Marshal(features)
	if err != nil {
		return CropRecommendation{}, fmt.Errorf("encode crop features: %w", err)
	}

	body, _, err := c.post(ctx, CallCrop, c.cropURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return CropRecommendation{}, err
	}

	var rec CropRecommendation
	if err := json.Unmarshal(body, &rec); err != nil {
		return CropRecommendation{}, fmt.Errorf("decode crop recommendation: %w", err)
	}
	return rec, nil
}

// DetectDisease forwards image as multipart field "file" under filename.
func (c *Client) DetectDisease(ctx context.Context, filename string, image io.Reader) (Detection, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Detection{}, fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return Detection{}, fmt.Errorf("copy image %q: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return Detection{}, fmt.Errorf("close multipart writer: %w", err)
	}

	body, contentType, err := c.post(ctx, CallDisease, c.diseaseURL, mw.FormDataContentType(), &buf)
	if err != nil {
		return Detection{}, err
	}
	if contentType == "" {
		contentType = "application/json"
	}
	return Detection{ContentType: contentType, Body: body}, nil
}

func (c *Client) post(ctx context.Context, call, url, contentType string, body io.Reader) ([]byte, string, error) {
	start := time.Now()
	outcome := "error"
	defer func() {
		c.recorder.ObserveInference(call, outcome, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, "", fmt.Errorf("create %s request: %w", call, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "unreachable"
		c.logger.Warn("inference call failed", zap.String("call", call), zap.Error(err))
		return nil, "", apierror.DownstreamServer(0, "", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		outcome = "unreachable"
		return nil, "", apierror.DownstreamServer(0, "", fmt.Errorf("read %s response: %w", call, err))
	}
	if len(respBody) > maxResponseSize {
		outcome = "oversize"
		c.logger.Warn("inference response too large",
			zap.String("call", call),
			zap.Int("status", resp.StatusCode))
		return nil, "", apierror.DownstreamServer(resp.StatusCode, "",
			fmt.Errorf("%s response exceeds %d bytes", call, maxResponseSize))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = fmt.Sprintf("%dxx", resp.StatusCode/100)
		c.logger.Warn("inference service returned an error",
			zap.String("call", call),
			zap.Int("status", resp.StatusCode))
		return nil, "", classifyStatus(resp.StatusCode, respBody)
	}

	outcome = "ok"
	return respBody, resp.Header.Get("Content-Type"), nil
}

// classifyStatus splits non-2xx answers into the caller's fault (4xx) and
// the service's fault (everything else).
func classifyStatus(status int, body []byte) error {
	if status >= 400 && status < 500 {
		return apierror.DownstreamClient(status, string(body))
	}
	return apierror.DownstreamServer(status, string(body), nil)
}
