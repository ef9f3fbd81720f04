package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/apiv1"
	visionpb "google.golang.org/genproto/googleapis/cloud/vision/v1"
	"google.golang.org/api/option"
)

const (
	// MaxFileSizeBytes is the maximum file size for synchronous processing (20MB)
	MaxFileSizeBytes = 20 * 1024 * 1024

	// MaxPagesSync is the maximum number of pages for synchronous processing
	MaxPagesSync = 5
)

// GoogleVisionRecognizer implements Recognizer using Google Cloud Vision
// document text detection. It handles both PDFs and raster images.
type GoogleVisionRecognizer struct {
	client *vision.ImageAnnotatorClient
}

// NewGoogleVisionRecognizer creates a recognizer with credentials from the
// environment. It expects either a GOOGLE_APPLICATION_CREDENTIALS path or
// GOOGLE_CREDENTIALS JSON in env.
func NewGoogleVisionRecognizer(ctx context.Context) (*GoogleVisionRecognizer, error) {
	const op = "NewGoogleVisionRecognizer"

	var client *vision.ImageAnnotatorClient
	var err error

	// Check for inline credentials first
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapRecognitionError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapRecognitionError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapRecognitionError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &GoogleVisionRecognizer{client: client}, nil
}

// NewGoogleVisionRecognizerWithClient creates a recognizer with an explicit
// client (for testing).
func NewGoogleVisionRecognizerWithClient(client *vision.ImageAnnotatorClient) *GoogleVisionRecognizer {
	return &GoogleVisionRecognizer{client: client}
}

// Recognize routes PDFs through synchronous file annotation and images
// through document text detection.
func (g *GoogleVisionRecognizer) Recognize(ctx context.Context, data []byte, kind string) (*Result, error) {
	const op = "GoogleVisionRecognizer.Recognize"
	start := time.Now()

	if len(data) > MaxFileSizeBytes {
		return nil, WrapRecognitionError(op, ErrDocumentTooLarge, fmt.Sprintf("file size: %d bytes", len(data)))
	}

	var result *Result
	var err error
	switch kind {
	case KindPDF:
		result, err = g.recognizePDF(ctx, data)
	case KindImage:
		result, err = g.recognizeImage(ctx, data)
	default:
		return nil, NewRecognitionError(op, ErrUnsupportedKind, kind)
	}
	if err != nil {
		return nil, err
	}

	result.Provider = "google-vision"
	result.ProcessedAt = time.Now()
	result.Duration = result.ProcessedAt.Sub(start)
	return result, nil
}

func (g *GoogleVisionRecognizer) recognizePDF(ctx context.Context, data []byte) (*Result, error) {
	const op = "recognizePDF"

	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return nil, WrapRecognitionError(op, ErrInvalidPDF, "missing PDF header")
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  data,
					MimeType: "application/pdf",
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, WrapRecognitionError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapRecognitionError(op, ErrRecognitionFailed, "no response from Vision API")
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, WrapRecognitionError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API error: %s", fileResp.Error.Message))
	}

	return collectFileResponse(fileResp)
}

func (g *GoogleVisionRecognizer) recognizeImage(ctx context.Context, data []byte) (*Result, error) {
	const op = "recognizeImage"

	annotation, err := g.client.DetectDocumentText(ctx, &visionpb.Image{Content: data}, nil)
	if err != nil {
		return nil, WrapRecognitionError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if annotation == nil || strings.TrimSpace(annotation.Text) == "" {
		return nil, NewRecognitionError(op, ErrEmptyDocument, "")
	}

	var confidenceSum float64
	var confidenceCount int
	for _, page := range annotation.Pages {
		if page.Confidence > 0 {
			confidenceSum += float64(page.Confidence)
			confidenceCount++
		}
	}
	quality := 0.0
	if confidenceCount > 0 {
		quality = confidenceSum / float64(confidenceCount)
	}

	return &Result{
		Text:    annotation.Text,
		Quality: quality,
		Pages:   1,
	}, nil
}

// collectFileResponse aggregates per-page annotations into one Result: page
// texts concatenated in order, quality as the mean annotation confidence.
func collectFileResponse(fileResp *visionpb.AnnotateFileResponse) (*Result, error) {
	if len(fileResp.Responses) == 0 {
		return nil, ErrEmptyDocument
	}

	pageCount := len(fileResp.Responses)
	if pageCount > MaxPagesSync {
		return nil, WrapRecognitionError("collectFileResponse", ErrRecognitionFailed, fmt.Sprintf("document has %d pages, synchronous limit is %d", pageCount, MaxPagesSync))
	}

	var allText strings.Builder
	var confidenceSum float64
	var confidenceCount int

	for pageIdx, page := range fileResp.Responses {
		if page.Error != nil {
			return nil, fmt.Errorf("error processing page %d: %s", pageIdx+1, page.Error.Message)
		}
		if page.FullTextAnnotation == nil {
			continue
		}
		if pageIdx > 0 {
			allText.WriteString("\n\n")
		}
		allText.WriteString(page.FullTextAnnotation.Text)

		for _, textAnnotation := range page.TextAnnotations {
			if textAnnotation.Confidence > 0 {
				confidenceSum += float64(textAnnotation.Confidence)
				confidenceCount++
			}
		}
	}

	text := allText.String()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	quality := 0.0
	if confidenceCount > 0 {
		quality = confidenceSum / float64(confidenceCount)
	}

	return &Result{
		Text:    text,
		Quality: quality,
		Pages:   pageCount,
	}, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionRecognizer) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
