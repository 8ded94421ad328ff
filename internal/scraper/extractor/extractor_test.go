package extractor

import (
	"reflect"
	"testing"

	"github.com/rizkirmdhn/bililinks/internal/scraper"
)

func TestExtract(t *testing.T) {
	ext := New(scraper.NewMatcher("bilibili.com"))

	tests := []struct {
		name string
		html string
		want []string
	}{
		{
			name: "matching and non matching",
			html: `<html><body>
				<a href="//bilibili.com/video/BV123?from=search">hit</a>
				<a href="//bilibili.com/video/BV123?from=other">miss</a>
			</body></html>`,
			want: []string{"https://bilibili.com/video/BV123?from=search"},
		},
		{
			name: "duplicates kept in order",
			html: `<div class="video-list">
				<a href="//www.bilibili.com/video/BV2?from=search"><img></a>
				<a href="//www.bilibili.com/video/BV1?from=search">title</a>
				<a href="//www.bilibili.com/video/BV2?from=search">again</a>
			</div>`,
			want: []string{
				"https://www.bilibili.com/video/BV2?from=search",
				"https://www.bilibili.com/video/BV1?from=search",
				"https://www.bilibili.com/video/BV2?from=search",
			},
		},
		{
			name: "absolute link kept as is",
			html: `<a href="https://www.bilibili.com/video/BV9?from=search">x</a>`,
			want: []string{"https://www.bilibili.com/video/BV9?from=search"},
		},
		{
			name: "href on non anchor ignored",
			html: `<link href="//bilibili.com/video/BV1?from=search"><area href="//bilibili.com/video/BV2?from=search">`,
			want: nil,
		},
		{
			name: "anchor without href",
			html: `<a name="top">top</a>`,
			want: nil,
		},
		{
			name: "malformed markup is best effort",
			html: `<div><a href="//bilibili.com/video/BV7?from=search">unclosed<p><<<`,
			want: []string{"https://bilibili.com/video/BV7?from=search"},
		},
		{
			name: "not html at all",
			html: `{"code":-412,"message":"request was banned"}`,
			want: nil,
		},
		{
			name: "empty body",
			html: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ext.Extract(tt.html)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %v, want %v", got, tt.want)
			}
		})
	}
}
