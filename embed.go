package folio

import "embed"

// EmbeddedAssets contains static assets shipped with folio:
// folio.css, suspense.js, analytics.js, speed-insights.js
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

var embeddedAssetNames = []string{
	"folio.css",
	"suspense.js",
	"analytics.js",
	"speed-insights.js",
}
