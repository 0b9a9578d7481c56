package gen

import (
	"fmt"
	"io"
)

// printer is a minimal line-oriented code writer, in the spirit of
// protogen.GeneratedFile.P: each call to P concatenates its arguments with
// fmt.Sprint and appends a newline. The first write error is sticky and
// returned by Err.
type printer struct {
	w   io.Writer
	err error
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) P(args ...interface{}) {
	if p.err != nil {
		return
	}
	for _, a := range args {
		if _, err := fmt.Fprint(p.w, a); err != nil {
			p.err = err
			return
		}
	}
	if _, err := fmt.Fprintln(p.w); err != nil {
		p.err = err
	}
}

func (p *printer) Err() error { return p.err }
