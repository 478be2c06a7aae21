package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// MultiWriter fans a write out to all given writers. Unlike io.MultiWriter
// it keeps writing to the remaining writers when one of them fails, and
// reports the combined failures instead of stopping at the first one.
type MultiWriter struct {
	writers []io.Writer
}

func NewMultiWriter(writers ...io.Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

func (mw *MultiWriter) Write(p []byte) (n int, err error) {
	for _, w := range mw.writers {
		written, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		n += written
	}
	return n, err
}
