package transform

import (
	"context"
	"strings"
	"zendocs-backend/internal/components/telemetry"
	"zendocs-backend/lib/htmlutil"
	"zendocs-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	buttonSelector            = "button"
	infoAdmonitionImgSelector = "div[class*='theme-admonition-info'] img"
	admonitionHeadingSelector = "[class*='admonitionHeading']"
	stickyAnchorSelector      = "h4[class^='anchor anchorWithStickyNavbar']"
	codeBlockWrapperSelector  = "div[class*='codeBlock']"
	codeSelector              = "code"
)

func removeAll(sel *goquery.Selection) int {
	n := sel.Length()
	sel.Remove()
	return n
}

// StripButtons removes the copy (and word wrap) controls docusaurus puts on code blocks.
type StripButtons struct{}

func (StripButtons) Name() string { return "strip-buttons" }

func (StripButtons) Apply(_ context.Context, content *goquery.Selection, _ telemetry.API) (int, error) {
	return removeAll(content.Find(buttonSelector)), nil
}

// StripInfoImages removes icons and images from "info" admonitions, their text stays.
type StripInfoImages struct{}

func (StripInfoImages) Name() string { return "strip-info-images" }

func (StripInfoImages) Apply(_ context.Context, content *goquery.Selection, _ telemetry.API) (int, error) {
	return removeAll(content.Find(infoAdmonitionImgSelector)), nil
}

// PromoteAdmonitionHeadings replaces admonition headings with an upper cased <h2>.
type PromoteAdmonitionHeadings struct{}

func (PromoteAdmonitionHeadings) Name() string { return "promote-admonition-headings" }

func (PromoteAdmonitionHeadings) Apply(_ context.Context, content *goquery.Selection, _ telemetry.API) (int, error) {
	n := 0
	content.Find(admonitionHeadingSelector).Each(func(_ int, heading *goquery.Selection) {
		node := heading.Nodes[0]
		text := strings.ToUpper(htmlutil.StrippedText(node))
		htmlutil.ReplaceNode(node, htmlutil.NewElement("h2", text))
		n++
	})
	return n, nil
}

// RemoveStickyAnchors removes <h4> headings whose class attribute starts with the sticky navbar anchor marker.
type RemoveStickyAnchors struct{}

func (RemoveStickyAnchors) Name() string { return "remove-sticky-anchors" }

func (RemoveStickyAnchors) Apply(_ context.Context, content *goquery.Selection, _ telemetry.API) (int, error) {
	return removeAll(content.Find(stickyAnchorSelector)), nil
}

// NormalizeCodeBlocks leaves every code block as a bare <pre><code> pair.
// The zendesk editor mangles class and style attributes on either tag.
type NormalizeCodeBlocks struct{}

func (NormalizeCodeBlocks) Name() string { return "normalize-code-blocks" }

func (NormalizeCodeBlocks) Apply(_ context.Context, content *goquery.Selection, tel telemetry.API) (int, error) {
	n := 0
	var failure error
	content.Find(codeBlockWrapperSelector).EachWithBreak(func(_ int, wrapper *goquery.Selection) bool {
		pre := htmlutil.FirstElement(wrapper.Nodes[0], "pre")
		if pre == nil {
			return true
		}

		code := htmlutil.FirstElement(pre, "code")
		if code == nil {
			code = htmlutil.NewElement("code", htmlutil.GetText(pre))
			htmlutil.ClearChildren(pre)
			pre.AppendChild(code)
		}
		pre.Attr = nil
		code.Attr = nil

		_, err := htmlutil.Reparse(pre)
		if err != nil {
			failure = err
			return false
		}

		tel.ReportDebug("cleaned code block", textutil.Truncate(htmlutil.StrippedText(code), 60))
		n++
		return true
	})
	return n, failure
}

// BoldInlineCode turns <code> outside of <pre> into <strong>.
type BoldInlineCode struct{}

func (BoldInlineCode) Name() string { return "bold-inline-code" }

func (BoldInlineCode) Apply(_ context.Context, content *goquery.Selection, _ telemetry.API) (int, error) {
	n := 0
	content.Find(codeSelector).Each(func(_ int, sel *goquery.Selection) {
		node := sel.Nodes[0]
		if htmlutil.HasAncestor(node, "pre") {
			return
		}
		htmlutil.ReplaceNode(node, htmlutil.NewElement("strong", htmlutil.GetText(node)))
		n++
	})
	return n, nil
}
