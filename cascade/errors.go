package cascade

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"stylekit/css"
)

// ErrReload is matched by every error returned from a rejected Load.
var ErrReload = errors.New("stylesheet rejected")

// ReloadError is returned by Load when the new stylesheet cannot replace the
// active one. The active stylesheet stays in place.
type ReloadError struct {
	Source      string
	Reason      string
	Diagnostics []css.Diagnostic
}

func (e *ReloadError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrReload, e.Reason)
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	if n := len(e.Diagnostics); n > 0 {
		msg += fmt.Sprintf(" (%d diagnostics, first: %s)", n, e.Diagnostics[0].Error())
	}
	return msg
}

// Unwrap exposes ErrReload and every diagnostic.
func (e *ReloadError) Unwrap() []error {
	return append([]error{ErrReload}, multierr.Errors(e.causes())...)
}

func (e *ReloadError) causes() error {
	var err error
	for i := range e.Diagnostics {
		err = multierr.Append(err, &e.Diagnostics[i])
	}
	return err
}
