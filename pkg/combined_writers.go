package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter duplicates log output to stdout and the rotated log file.
// Unlike io.MultiWriter it keeps writing to the remaining writers when one
// of them fails.
type CombinedWriter struct {
	writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	cw := &CombinedWriter{}
	for _, w := range writers {
		if w != nil {
			cw.writers = append(cw.writers, w)
		}
	}
	return cw
}

func (cw *CombinedWriter) Len() int {
	return len(cw.writers)
}

// Write reports len(p) as written if at least one writer took the whole
// entry. All writer errors are returned combined.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var (
		errs      error
		delivered bool
	)
	for _, w := range cw.writers {
		n, err := w.Write(p)
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		delivered = true
	}
	if !delivered {
		return 0, errs
	}
	return len(p), errs
}
