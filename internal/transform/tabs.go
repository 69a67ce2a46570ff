package transform

import (
	"context"
	"zendocs-backend/internal/components/telemetry"
	"zendocs-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	report_tabs_flatten = "tabs.flatten"
)

const (
	tabContainerSelector = "div[class*='tabs-container']"
	tabLabelSelector     = "ul.tabs > li"
	tabPanelSelector     = "div[role='tabpanel']"
)

// TabBlock is the label list and panels of one tab container, in document order.
type TabBlock struct {
	Labels []string
	Panels []*html.Node
}

// owned filters sel down to the nodes whose nearest tab container is container,
// so tabs nested inside a panel are left for their own container.
func owned(sel *goquery.Selection, container *html.Node) *goquery.Selection {
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		nearest := s.Parent().Closest(tabContainerSelector)
		return nearest.Length() > 0 && nearest.Nodes[0] == container
	})
}

func collectTabBlock(container *goquery.Selection) TabBlock {
	node := container.Nodes[0]

	var block TabBlock
	owned(container.Find(tabLabelSelector), node).Each(func(_ int, li *goquery.Selection) {
		block.Labels = append(block.Labels, htmlutil.StrippedText(li.Nodes[0]))
	})
	block.Panels = owned(container.Find(tabPanelSelector), node).Nodes
	return block
}

// Expand turns the block into heading + blockquote pairs, moving the panel children into the blockquotes.
// Labels and panels are paired by position, extras on either side are dropped.
func (b TabBlock) Expand() []*html.Node {
	pairs := min(len(b.Labels), len(b.Panels))
	out := make([]*html.Node, 0, pairs*2)
	for i := 0; i < pairs; i++ {
		panel := b.Panels[i]
		removeAttr(panel, "hidden")

		blockquote := htmlutil.NewElement("blockquote", "")
		htmlutil.MoveChildren(panel, blockquote)
		out = append(out, htmlutil.NewElement("h3", b.Labels[i]), blockquote)
	}
	return out
}

func removeAttr(node *html.Node, key string) {
	kept := node.Attr[:0]
	for _, a := range node.Attr {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	node.Attr = kept
}

// FlattenTabs replaces every tab container with its labels as <h3> headings,
// each followed by a <blockquote> holding that tab's content.
type FlattenTabs struct{}

func (FlattenTabs) Name() string { return "flatten-tabs" }

func (FlattenTabs) Apply(_ context.Context, content *goquery.Selection, tel telemetry.API) (int, error) {
	n := 0
	content.Find(tabContainerSelector).Each(func(_ int, container *goquery.Selection) {
		flattenTabContainer(container, tel)
		n++
	})
	return n, nil
}

func flattenTabContainer(container *goquery.Selection, tel telemetry.API) {
	block := collectTabBlock(container)
	if len(block.Labels) != len(block.Panels) {
		tel.ReportWarning(
			report_tabs_flatten,
			"label and panel counts differ, extras are dropped",
			block.Labels,
			len(block.Panels),
		)
	}

	sections := block.Expand()
	if len(sections) == 0 {
		tel.ReportWarning(report_tabs_flatten, "no matching tab content found, removing tab container")
	}
	tel.ReportDebug("flattened tab container", block.Labels)

	htmlutil.ReplaceNode(container.Nodes[0], sections...)
}
