package xmlextract

// ErrorKind classifies a ProcessingError so callers can react to the
// failure category without parsing message text.
type ErrorKind int

const (
	// KindInvalidArgument means a required input was empty or missing.
	KindInvalidArgument ErrorKind = iota + 1
	// KindFileAccess means the path does not resolve to a readable regular file.
	KindFileAccess
	// KindParse means the document could not be read or was not well-formed XML.
	KindParse
	// KindConfiguration means the hardened loader or serializer could not be
	// set up. Not expected in normal operation.
	KindConfiguration
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindFileAccess:
		return "file access"
	case KindParse:
		return "parse"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// ProcessingError is the single error family surfaced by this package.
// The not-found case is deliberately not an error; it is reported through
// the found return value instead.
type ProcessingError struct {
	Kind ErrorKind
	msg  string
	err  error
}

func (e *ProcessingError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

// Unwrap exposes the underlying cause for errors.Is and errors.As.
func (e *ProcessingError) Unwrap() error { return e.err }

func newError(kind ErrorKind, msg string) *ProcessingError {
	return &ProcessingError{Kind: kind, msg: msg}
}

func wrapError(kind ErrorKind, msg string, err error) *ProcessingError {
	return &ProcessingError{Kind: kind, msg: msg, err: err}
}
