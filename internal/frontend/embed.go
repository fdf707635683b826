package frontend

import (
	"bytes"
	"embed"
	"encoding/base64"
	"sync"
)

//go:embed static/*
var staticFiles embed.FS

const faviconPlaceholder = "{{FAVICON}}"

var (
	pageOnce sync.Once
	page     []byte
)

// IndexPage returns the dashboard with the application icon inlined as a
// data URI. The result is built once and shared; callers must not modify it.
func IndexPage() []byte {
	pageOnce.Do(func() {
		html, err := staticFiles.ReadFile("static/index.html")
		if err != nil {
			panic(err)
		}
		page = bytes.ReplaceAll(html, []byte(faviconPlaceholder), []byte(iconLink()))
	})
	return page
}

func iconLink() string {
	icon, err := staticFiles.ReadFile("static/icon.svg")
	if err != nil || len(icon) == 0 {
		return ""
	}
	return "<link rel='icon' type='image/svg+xml' href='data:image/svg+xml;base64," +
		base64.StdEncoding.EncodeToString(icon) + "'>"
}
