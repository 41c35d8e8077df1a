package web

import "embed"

// Templates holds the page templates; every page is parsed together with
// layout.html.
//
//go:embed templates/*.html
var Templates embed.FS

//go:embed static
var Static embed.FS
