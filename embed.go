package spacetraveling

import "embed"

// EmbeddedAssets contains scripts shipped with the app: loadmore.js, which
// drives the listing's load-more control.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
