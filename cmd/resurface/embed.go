package main

import (
	"embed"
	"io/fs"

	"github.com/lazypower/resurface/internal/cli"
)

// The ui directory holds the card UI served at /.
//
//go:embed all:ui
var uiDist embed.FS

func init() {
	sub, err := fs.Sub(uiDist, "ui")
	if err != nil {
		return
	}
	cli.UI = sub
}
