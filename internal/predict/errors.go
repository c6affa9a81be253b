package predict

import "errors"

type Kind int

const (
	NoFileProvided Kind = iota + 1
	EmptyFilename
	UnsupportedExtension
	ModelUnavailable
	DecodeOrInferenceFailure
)

func (k Kind) String() string {
	switch k {
	case NoFileProvided:
		return "no_file_provided"
	case EmptyFilename:
		return "empty_filename"
	case UnsupportedExtension:
		return "unsupported_extension"
	case ModelUnavailable:
		return "model_unavailable"
	case DecodeOrInferenceFailure:
		return "decode_or_inference_failure"
	}
	return "unknown"
}

// Error is returned by every failing pipeline step.
type Error struct {
	Kind Kind
	Err  error
}

var (
	ErrNoFile           = &Error{Kind: NoFileProvided}
	ErrEmptyFilename    = &Error{Kind: EmptyFilename}
	ErrInvalidExtension = &Error{Kind: UnsupportedExtension}
	ErrModelNotLoaded   = &Error{Kind: ModelUnavailable}
)

// Failure wraps err as a DecodeOrInferenceFailure.
func Failure(err error) *Error {
	return &Error{Kind: DecodeOrInferenceFailure, Err: err}
}

func (e *Error) Error() string {
	switch e.Kind {
	case NoFileProvided:
		return "No file uploaded"
	case EmptyFilename:
		return "No file selected"
	case UnsupportedExtension:
		return "Invalid file type"
	case ModelUnavailable:
		return "Model not loaded"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "prediction failed"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrModelNotLoaded)
// works without comparing pointers.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of a pipeline error, or 0 for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
