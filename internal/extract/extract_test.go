package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageURLs(t *testing.T) {
	markup := `<div>
		<img src="http://a/x.png@200w.avif">
		<p>caption</p>
		<img src="http://a/y.png">
	</div>`

	assert.Equal(t, []string{"http://a/x.png", "http://a/y.png"}, ImageURLs(markup))
}

func TestImageURLs_PreservesDuplicatesAndOrder(t *testing.T) {
	markup := `<img src="//cdn/b.jpg"><img src="//cdn/a.jpg"><img src="//cdn/b.jpg">`

	assert.Equal(t, []string{"//cdn/b.jpg", "//cdn/a.jpg", "//cdn/b.jpg"}, ImageURLs(markup))
}

func TestImageURLs_SkipsMissingSrc(t *testing.T) {
	markup := `<img alt="no source"><img src=""><img data-src="lazy.jpg"><img src="ok.gif">`

	assert.Equal(t, []string{"ok.gif"}, ImageURLs(markup))
}

func TestImageURLs_Fragments(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   []string
	}{
		{"empty", "", nil},
		{"plain text", "no tags here", nil},
		{"self closing", `<div><img src='a.png' /></div>`, []string{"a.png"}},
		{"uppercase tag", `<IMG SRC="b.png">`, []string{"b.png"}},
		{"nested", `<a href="#"><span><img src="c.webp@1x"></span></a>`, []string{"c.webp"}},
		{"noscript", `<img src="a.jpg"><noscript><img src="b.jpg@100w.webp"></noscript><img src="c.jpg">`, []string{"a.jpg", "b.jpg", "c.jpg"}},
		{"noscript in body", `<html><body><p><noscript><img src="lazy.png"></noscript></p></body></html>`, []string{"lazy.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageURLs(tt.markup))
		})
	}
}

func TestStripDecoration(t *testing.T) {
	assert.Equal(t, "http://a/x.png", StripDecoration("http://a/x.png@200w_1e.webp"))
	assert.Equal(t, "http://a/x.png", StripDecoration("http://a/x.png"))
	assert.Equal(t, "", StripDecoration("@only"))
}
