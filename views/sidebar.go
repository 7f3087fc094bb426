package views

import (
	"bytes"
	"context"

	"github.com/a-h/templ"
)

// SidebarState is the persisted open/collapsed state of the sidebar.
type SidebarState string

const (
	SidebarExpanded  SidebarState = "expanded"
	SidebarCollapsed SidebarState = "collapsed"
)

// Toggle returns the opposite state.
func (s SidebarState) Toggle() SidebarState {
	if s == SidebarCollapsed {
		return SidebarExpanded
	}
	return SidebarCollapsed
}

// ParseSidebarState maps a stored value to a state, defaulting to expanded.
func ParseSidebarState(v string) SidebarState {
	if SidebarState(v) == SidebarCollapsed {
		return SidebarCollapsed
	}
	return SidebarExpanded
}

// Sidebar is the view model of the fixed side frame.
type Sidebar struct {
	Title string
	State SidebarState
	CSRF  string
	// Content fills the frame; normally the chat suspense mount.
	Content templ.Component
}

// SidebarFrame renders the fixed frame: header, content slot and the rail
// button that posts to /sidebar/toggle.
func SidebarFrame(s Sidebar) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		state := s.State
		if state == "" {
			state = SidebarExpanded
		}
		buf.WriteString(`<aside class="sidebar"`)
		attr(buf, "data-state", string(state))
		buf.WriteString(`>`)

		buf.WriteString(`<header class="sidebar__header">`)
		if s.Title != "" {
			buf.WriteString(`<span class="sidebar__title">`)
			text(buf, s.Title)
			buf.WriteString(`</span>`)
		}
		buf.WriteString(`</header>`)

		buf.WriteString(`<div class="sidebar__content">`)
		if s.Content != nil {
			if err := s.Content.Render(ctx, buf); err != nil {
				return err
			}
		}
		buf.WriteString(`</div>`)

		label := "Collapse sidebar"
		if state == SidebarCollapsed {
			label = "Expand sidebar"
		}
		buf.WriteString(`<form class="sidebar__rail" method="post" action="/sidebar/toggle">`)
		if s.CSRF != "" {
			buf.WriteString(`<input type="hidden" name="_csrf"`)
			attr(buf, "value", s.CSRF)
			buf.WriteString(`>`)
		}
		buf.WriteString(`<button type="submit" class="sidebar__toggle"`)
		attr(buf, "aria-label", label)
		attr(buf, "aria-expanded", boolString(state == SidebarExpanded))
		buf.WriteString(`></button></form>`)

		buf.WriteString(`</aside>`)
		return nil
	})
}

// LoadingFallback is the static placeholder shown while a boundary is pending.
func LoadingFallback() templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<div class="sidebar__loading">Loading...</div>`)
		return nil
	})
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
