package enhance

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/atom"
)

func (e *Enhancer) enhanceTables(doc *goquery.Selection, res *Result) {
	doc.Find("table").Each(func(_ int, s *goquery.Selection) {
		table := s.Get(0)
		res.Tables++
		setAttr(table, "class", e.opts.TableClass)

		parent := table.Parent
		if parent == nil {
			return
		}
		if parent.DataAtom == atom.Div && hasClass(parent, e.opts.WrapperClass) {
			// 已经包装过
			return
		}

		wrapper := newElement(atom.Div, attr("class", e.opts.WrapperClass))
		parent.InsertBefore(wrapper, table)
		parent.RemoveChild(table)
		wrapper.AppendChild(table)
		res.WrappedTables++
	})
}
