package views

// Site holds site-wide settings every page template reads.
type Site struct {
	Name        string // page <title> and header
	URL         string // canonical base URL, no trailing slash
	Description string
	Author      string
	Icon        string // favicon path

	FontsURL string // hosted font stylesheet; empty disables the link
	Fonts    []Font

	Telemetry Telemetry
}

// Font is a global font token: a CSS custom property exposed through a
// class on <body>.
type Font struct {
	Class    string // e.g. "font-geist-sans"
	Variable string // e.g. "--font-geist-sans"
	Family   string // e.g. `"Geist", ui-sans-serif, system-ui, sans-serif`
}

// Telemetry configures the two passive collectors mounted by the layout.
type Telemetry struct {
	Enabled        bool
	ViewEndpoint   string // usage analytics beacon target
	VitalsEndpoint string // performance timing beacon target
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	JSONLD      string
}

// DefaultFonts are the Geist tokens the layout applies when none are set.
var DefaultFonts = []Font{
	{Class: "font-geist-sans", Variable: "--font-geist-sans", Family: `"Geist", ui-sans-serif, system-ui, sans-serif`},
	{Class: "font-geist-mono", Variable: "--font-geist-mono", Family: `"Geist Mono", ui-monospace, SFMono-Regular, monospace`},
}
