// Package clipboard copies prompt text to the platform clipboard and turns
// the outcome into a user notice.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrUnavailable is returned when the platform has no usable clipboard.
var ErrUnavailable = errors.New("clipboard unavailable")

// Writer writes text to a clipboard.
type Writer interface {
	WriteText(text string) error
}

type systemClipboard struct{}

// System returns the platform clipboard.
func System() Writer { return systemClipboard{} }

func (systemClipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	return clipboard.WriteAll(text)
}

// Notice is the transient message shown after a copy attempt.
type Notice struct {
	OK     bool
	Title  string
	Detail string
	Err    error
}

// Copy writes text through w and reports the result. It never panics; a
// nil writer is treated as an unavailable clipboard.
func Copy(w Writer, text string) (n Notice) {
	defer func() {
		if r := recover(); r != nil {
			n = failure(errors.New("clipboard write panicked"))
		}
	}()
	if w == nil {
		return unavailable()
	}
	if text == "" {
		return Notice{Title: "Nothing to Copy", Detail: "This prompt has no text.", Err: errors.New("empty text")}
	}
	if err := w.WriteText(text); err != nil {
		if errors.Is(err, ErrUnavailable) {
			return unavailable()
		}
		return failure(err)
	}
	return Notice{OK: true, Title: "Copied!", Detail: "Prompt copied to clipboard."}
}

func unavailable() Notice {
	return Notice{
		Title:  "Error",
		Detail: "Clipboard is not available in this environment.",
		Err:    ErrUnavailable,
	}
}

func failure(err error) Notice {
	return Notice{
		Title:  "Error Copying",
		Detail: "Could not copy prompt to clipboard.",
		Err:    err,
	}
}
