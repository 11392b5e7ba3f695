package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// Vision runs TEXT_DETECTION on Google Cloud Vision.
type Vision struct {
	client *vision.ImageAnnotatorClient
}

// NewVision creates an annotator client. Without explicit client options it
// requires GOOGLE_APPLICATION_CREDENTIALS to be set.
func NewVision(ctx context.Context, opts ...option.ClientOption) (*Vision, error) {
	if len(opts) == 0 && os.Getenv(CredentialsEnv) == "" {
		return nil, ErrMissingCredentials
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}

	return &Vision{client: client}, nil
}

// Detect returns the description of the first text annotation, which holds
// the full text of the image.
func (v *Vision) Detect(ctx context.Context, image []byte) (string, error) {
	resp, err := v.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_TEXT_DETECTION}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("text detection: %w", err)
	}

	if len(resp.GetResponses()) == 0 {
		return "", ErrNoText
	}

	return firstAnnotation(resp.GetResponses()[0])
}

func firstAnnotation(res *visionpb.AnnotateImageResponse) (string, error) {
	if msg := res.GetError().GetMessage(); msg != "" {
		return "", errors.New("vision api: " + msg)
	}

	texts := res.GetTextAnnotations()
	if len(texts) == 0 {
		return "", ErrNoText
	}

	return texts[0].GetDescription(), nil
}

// Close releases the client connection.
func (v *Vision) Close() error {
	return v.client.Close()
}
