package backend

import (
	"context"
	"io"
	"strings"

	stderrors "errors"

	"github.com/lingopod/engine/internal/errors"
)

// classifyTransportError maps a failed submission transport error onto the
// engine taxonomy. A connection dropped mid-flight is transient and gets one
// bounded extra archive check upstream; everything else is a generic submit
// failure.
func classifyTransportError(err error) error {
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		// A non-2xx submission answer is a rejection, not a transport fault.
		if domainErr.Code == errors.CodeInternal {
			return errors.GenerationSubmit(domainErr.Message)
		}
		return domainErr
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if isConnectionDropped(err) {
		return errors.ErrConnectionDropped.WithCause(err)
	}
	return errors.ErrGenerationSubmit.WithCause(err)
}

func isConnectionDropped(err error) bool {
	if stderrors.Is(err, io.ErrUnexpectedEOF) || stderrors.Is(err, io.EOF) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{
		"connection reset",
		"connection refused",
		"broken pipe",
		"unexpected EOF",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// classifySubmitRejection maps a {success:false} submission response onto the
// taxonomy. "Maximum content size exceeded" is the backend's payload cap and
// is terminal; retrying would resubmit the same audio.
func classifySubmitRejection(upstream string) error {
	if strings.Contains(strings.ToLower(upstream), "content size") ||
		strings.Contains(strings.ToLower(upstream), "too large") {
		return errors.PayloadTooLarge(upstream)
	}
	if upstream == "" {
		upstream = "generation request rejected"
	}
	return errors.GenerationSubmit(upstream)
}
