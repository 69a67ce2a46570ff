// Package transform rewrites the rendered markup of a documentation page into
// an article body that the Zendesk help center editor accepts.
package transform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"zendocs-backend/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("zendocs.internal.transform")

const (
	report_engine_transform = "engine.transform"
	report_engine_rule      = "engine.rule"
)

// Landmarks every selector in the rules is scoped under.
const (
	LandmarkMain    = "main"
	LandmarkContent = "div.theme-doc-markdown"
)

var ErrNotFound = errors.New("landmark not found")

// LandmarkError is returned when the page is missing one of the landmarks.
type LandmarkError struct {
	Landmark string
}

func (e *LandmarkError) Error() string {
	return fmt.Sprintf("could not find %s element", e.Landmark)
}

func (e *LandmarkError) Is(target error) bool {
	return target == ErrNotFound
}

// Rule is one mutation of the content region. Rules keep no state between calls,
// they mutate the content in place and return how many elements they rewrote.
type Rule interface {
	Name() string
	Apply(ctx context.Context, content *goquery.Selection, tel telemetry.API) (int, error)
}

// DefaultRules returns the rules in the order they must run in.
//
// Inline code bolding must come after code block normalization and the tab
// flattening must come before it, otherwise code inside tab panels would be missed.
func DefaultRules() []Rule {
	return []Rule{
		StripButtons{},
		StripInfoImages{},
		PromoteAdmonitionHeadings{},
		RemoveStickyAnchors{},
		FlattenTabs{},
		NormalizeCodeBlocks{},
		BoldInlineCode{},
	}
}

type Engine struct {
	rules []Rule
	tel   telemetry.API
}

// NewEngine makes an engine that applies rules in order, DefaultRules when none are given.
func NewEngine(tel telemetry.API, rules ...Rule) Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return Engine{
		rules: rules,
		tel:   telemetry.NewScopedAPI("transform", tel),
	}
}

func (e Engine) Rules() []Rule {
	return e.rules
}

// FindContent locates the content region of a parsed page.
func FindContent(doc *goquery.Document) (*goquery.Selection, error) {
	main := doc.Find(LandmarkMain).First()
	if main.Length() == 0 {
		return nil, &LandmarkError{Landmark: LandmarkMain}
	}
	content := main.Find(LandmarkContent).First()
	if content.Length() == 0 {
		return nil, &LandmarkError{Landmark: LandmarkContent}
	}
	return content, nil
}

// Transform parses a full page, rewrites its content region and returns the inner html of that region.
func (e Engine) Transform(ctx context.Context, rawHtml string) (string, error) {
	ctx, span := tracer.Start(ctx, "Transform")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHtml))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse html")
		return "", fmt.Errorf("parse html: %w", err)
	}

	content, err := FindContent(doc)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		e.tel.ReportWarning(report_engine_transform, err)
		return "", err
	}

	err = e.Apply(ctx, content)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	out, err := content.Html()
	if err != nil {
		span.SetStatus(codes.Error, "failed to render html")
		return "", fmt.Errorf("render html: %w", err)
	}
	span.SetAttributes(attribute.Int("output_length", len(out)))
	e.tel.ReportDebug("transformed content", len(rawHtml), len(out))
	return out, nil
}

// Apply runs every rule over an already located content region.
func (e Engine) Apply(ctx context.Context, content *goquery.Selection) error {
	for _, rule := range e.rules {
		_, span := tracer.Start(ctx, rule.Name())
		n, err := rule.Apply(ctx, content, e.tel)
		span.SetAttributes(attribute.Int("rewritten", n))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.End()
			e.tel.ReportBroken(report_engine_rule, err, rule.Name())
			return fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		span.End()
		if n > 0 {
			e.tel.ReportDebug("rule applied", rule.Name(), n)
		}
	}
	return nil
}
