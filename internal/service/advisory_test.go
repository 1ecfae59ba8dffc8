package service

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/godilite/krishi-gateway/internal/apierror"
	"github.com/godilite/krishi-gateway/internal/inference"
	"github.com/godilite/krishi-gateway/internal/service/mocks"
)

func floatPtr(v float64) *float64 { return &v }

func validRecommendation() RecommendationRequest {
	return RecommendationRequest{
		N:           floatPtr(90),
		P:           floatPtr(42),
		K:           floatPtr(0),
		Temperature: floatPtr(20.8),
		Humidity:    floatPtr(82),
		PH:          floatPtr(6.5),
		Rainfall:    floatPtr(202.9),
	}
}

func TestRecommend(t *testing.T) {
	ctx := context.Background()

	t.Run("forwards features and relays the answer", func(t *testing.T) {
		want := inference.CropRecommendation{
			Status:   "success",
			TopCrops: []inference.CropScore{{Crop: "rice", Confidence: 0.9}},
		}
		client := &mocks.MockInferenceClient{
			RecommendCropFunc: func(_ context.Context, f inference.CropFeatures) (inference.CropRecommendation, error) {
				assert.Equal(t, inference.CropFeatures{N: 90, P: 42, K: 0, Temperature: 20.8, Humidity: 82, PH: 6.5, Rainfall: 202.9}, f)
				return want, nil
			},
		}

		got, err := NewCropService(client, nil, zap.NewNop()).Recommend(ctx, validRecommendation())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("negative nutrient never reaches the service", func(t *testing.T) {
		req := validRecommendation()
		req.N = floatPtr(-1)
		client := &mocks.MockInferenceClient{
			RecommendCropFunc: func(context.Context, inference.CropFeatures) (inference.CropRecommendation, error) {
				t.Fatal("inference must not be called")
				return inference.CropRecommendation{}, nil
			},
		}

		_, err := NewCropService(client, nil, nil).Recommend(ctx, req)
		apiErr := requireKind(t, err, apierror.KindValidation)
		assert.Equal(t, map[string]string{"N": "N must be >= 0"}, apiErr.Fields)
	})

	t.Run("missing features", func(t *testing.T) {
		req := validRecommendation()
		req.PH = nil
		req.Rainfall = nil

		_, err := NewCropService(&mocks.MockInferenceClient{}, nil, nil).Recommend(ctx, req)
		apiErr := requireKind(t, err, apierror.KindValidation)
		assert.Equal(t, map[string]string{
			"ph":       "ph is required",
			"rainfall": "rainfall is required",
		}, apiErr.Fields)
	})

	t.Run("downstream failure keeps its kind", func(t *testing.T) {
		client := &mocks.MockInferenceClient{
			RecommendCropFunc: func(context.Context, inference.CropFeatures) (inference.CropRecommendation, error) {
				return inference.CropRecommendation{}, apierror.DownstreamServer(http.StatusServiceUnavailable, "warming up", nil)
			},
		}

		_, err := NewCropService(client, nil, nil).Recommend(ctx, validRecommendation())
		apiErr := requireKind(t, err, apierror.KindDownstreamServer)
		assert.Equal(t, "warming up", apiErr.Body)
	})
}

func TestDetect(t *testing.T) {
	ctx := context.Background()

	t.Run("relays the classifier answer", func(t *testing.T) {
		client := &mocks.MockInferenceClient{
			DetectDiseaseFunc: func(_ context.Context, filename string, image io.Reader) (inference.Detection, error) {
				data, err := io.ReadAll(image)
				require.NoError(t, err)
				assert.Equal(t, "leaf.jpg", filename)
				assert.Equal(t, "jpeg-bytes", string(data))
				return inference.Detection{ContentType: "application/json", Body: []byte(`{"label":"healthy"}`)}, nil
			},
		}

		det, err := NewDiseaseService(client, zap.NewNop()).Detect(ctx, "leaf.jpg", strings.NewReader("jpeg-bytes"))
		require.NoError(t, err)
		assert.Equal(t, `{"label":"healthy"}`, string(det.Body))
	})

	t.Run("wraps failures", func(t *testing.T) {
		client := &mocks.MockInferenceClient{
			DetectDiseaseFunc: func(context.Context, string, io.Reader) (inference.Detection, error) {
				return inference.Detection{}, apierror.DownstreamServer(500, "oops", nil)
			},
		}

		_, err := NewDiseaseService(client, nil).Detect(ctx, "leaf.jpg", strings.NewReader(""))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"leaf.jpg"`)
	})

	t.Run("nil client panics", func(t *testing.T) {
		assert.Panics(t, func() { NewDiseaseService(nil, nil) })
		assert.Panics(t, func() { NewCropService(nil, nil, nil) })
	})
}
