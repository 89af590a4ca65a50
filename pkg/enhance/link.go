package enhance

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func (e *Enhancer) enhanceLinks(doc *goquery.Selection, res *Result) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("heading-anchor") {
			return
		}
		res.Links++

		href, _ := s.Attr("href")
		if !e.IsExternal(href) {
			return
		}
		n := s.Get(0)
		setAttr(n, "target", "_blank")
		setAttr(n, "rel", "noopener noreferrer")
		res.ExternalLinks++
	})
}

// IsExternal 判断链接的主机是否和当前页面不同
func (e *Enhancer) IsExternal(href string) bool {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil {
		return false
	}

	page := e.opts.PageURL
	if page == nil {
		return u.IsAbs()
	}
	return page.ResolveReference(u).Hostname() != page.Hostname()
}
