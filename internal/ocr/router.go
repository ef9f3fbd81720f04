package ocr

import "context"

// Router dispatches a document to a per-kind recognizer. A nil slot means
// the kind is unsupported in this configuration.
type Router struct {
	PDF   Recognizer
	Image Recognizer
}

func (r *Router) Recognize(ctx context.Context, data []byte, kind string) (*Result, error) {
	var rec Recognizer
	switch kind {
	case KindPDF:
		rec = r.PDF
	case KindImage:
		rec = r.Image
	}
	if rec == nil {
		return nil, NewRecognitionError("router.recognize", ErrUnsupportedKind,
			"no recognizer configured for kind "+kind)
	}
	return rec.Recognize(ctx, data, kind)
}

// Fallback tries each recognizer in order and returns the first success.
// It is used for PDFs, where the embedded text layer is preferred and a
// scan provider picks up documents without one.
type Fallback []Recognizer

func (f Fallback) Recognize(ctx context.Context, data []byte, kind string) (*Result, error) {
	var lastErr error
	for _, rec := range f {
		result, err := rec.Recognize(ctx, data, kind)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	if lastErr == nil {
		lastErr = NewRecognitionError("fallback.recognize", ErrRecognitionFailed,
			"no recognizers configured")
	}
	return nil, lastErr
}
