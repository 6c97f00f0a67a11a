// Package extract pulls image source URLs out of pasted HTML markup.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// sizeDecoration separates an image URL from CDN size/format suffixes
// such as "x.png@200w.avif".
const sizeDecoration = "@"

// ImageURLs returns the src attribute of every img element in markup, in
// document order. Elements without a src are skipped, duplicates are kept,
// and anything from the first "@" onward is dropped.
// Markup the parser rejects yields no URLs.
//
// Scripting is disabled while parsing so the img elements inside
// <noscript> are parsed as elements rather than raw text.
func ImageURLs(markup string) []string {
	root, err := html.ParseWithOptions(strings.NewReader(markup), html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil
	}
	doc := goquery.NewDocumentFromNode(root)

	var urls []string
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			return
		}
		urls = append(urls, StripDecoration(src))
	})
	return urls
}

// StripDecoration truncates src at the first "@".
func StripDecoration(src string) string {
	if i := strings.Index(src, sizeDecoration); i >= 0 {
		return src[:i]
	}
	return src
}
