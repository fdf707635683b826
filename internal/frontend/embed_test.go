package frontend

import (
	"bytes"
	"testing"
)

func TestIndexPage_InjectsIcon(t *testing.T) {
	html := IndexPage()

	if len(html) == 0 {
		t.Fatal("IndexPage() returned empty page")
	}
	if bytes.Contains(html, []byte(faviconPlaceholder)) {
		t.Error("placeholder was not replaced")
	}
	if !bytes.Contains(html, []byte("data:image/svg+xml;base64,")) {
		t.Error("page missing inlined icon")
	}
}

func TestIndexPage_Cached(t *testing.T) {
	a := IndexPage()
	b := IndexPage()
	if &a[0] != &b[0] {
		t.Error("IndexPage() should return the cached page")
	}
}
