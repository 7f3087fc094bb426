// Package chat provides the mount point of the hosted chat widget. The widget
// itself is an external script; this package only renders the element it
// attaches to and the script tag that loads it.
package chat

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
)

// Widget describes the hosted chat widget.
type Widget struct {
	// ScriptURL loads the widget bundle. Empty means chat is not configured.
	ScriptURL string
	// Endpoint is handed to the widget as the backend it talks to.
	Endpoint string
	Title    string
}

// Configured reports whether the widget has a script to load.
func (w Widget) Configured() bool {
	return w.ScriptURL != ""
}

// Load returns the widget's mount component. It satisfies the loader of a
// suspense boundary.
func (w Widget) Load(ctx context.Context) (templ.Component, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !w.Configured() {
		return unavailable(), nil
	}
	title := w.Title
	if title == "" {
		title = "Chat"
	}
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		var buf bytes.Buffer
		buf.WriteString(`<section class="chat" aria-label="`)
		buf.WriteString(templ.EscapeString(title))
		buf.WriteString(`"><div id="chat-root" class="chat__root"`)
		if w.Endpoint != "" {
			buf.WriteString(` data-endpoint="`)
			buf.WriteString(templ.EscapeString(string(templ.URL(w.Endpoint))))
			buf.WriteString(`"`)
		}
		buf.WriteString(`></div><script type="module" src="`)
		buf.WriteString(templ.EscapeString(string(templ.URL(w.ScriptURL))))
		buf.WriteString(`"></script></section>`)
		_, err := out.Write(buf.Bytes())
		return err
	}), nil
}

func unavailable() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<p class="chat__unavailable">Chat is not available right now.</p>`)
		return err
	})
}
