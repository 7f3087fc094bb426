package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
)

// component adapts a buffer-writing function into a templ.Component. The
// output is written in one call so a failed render never leaves half a
// document on the wire.
func component(fn func(ctx context.Context, buf *bytes.Buffer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := fn(ctx, &buf); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func text(buf *bytes.Buffer, s string) {
	buf.WriteString(templ.EscapeString(s))
}

func attr(buf *bytes.Buffer, name, value string) {
	buf.WriteByte(' ')
	buf.WriteString(name)
	buf.WriteString(`="`)
	buf.WriteString(templ.EscapeString(value))
	buf.WriteByte('"')
}

// urlAttr writes an href/src attribute, replacing unsafe schemes.
func urlAttr(buf *bytes.Buffer, name, value string) {
	attr(buf, name, string(templ.URL(value)))
}
