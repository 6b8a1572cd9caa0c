// internal/extract/dom.go
package extract

import (
	"fmt"
	"sort"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/valpere/tatooine/pkg/types"
)

// CompiledRule is a field rule whose selector has been parsed. A nil matcher
// selects the node itself.
type CompiledRule struct {
	Name    string
	Rule    types.FieldRule
	matcher goquery.Matcher
}

// CompiledRules is an ordered set of compiled field rules
type CompiledRules []CompiledRule

// CompileSelector parses a CSS selector, rejecting invalid ones instead of
// letting them silently match nothing
func CompileSelector(selector string) (goquery.Matcher, error) {
	compiled, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return compiled, nil
}

// CompileRules compiles every field rule. The root entry, if still present,
// is skipped. Rules come back sorted by field name.
func CompileRules(rules types.Selectors) (CompiledRules, error) {
	names := make([]string, 0, len(rules))
	for name := range rules {
		if name != types.RootKey {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	compiled := make(CompiledRules, 0, len(names))
	for _, name := range names {
		rule := rules[name]
		cr := CompiledRule{Name: name, Rule: rule}
		if rule.Value != "" {
			matcher, err := CompileSelector(rule.Value)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			cr.matcher = matcher
		}
		compiled = append(compiled, cr)
	}
	return compiled, nil
}

// ExtractNode extracts one field from node. It returns false when the
// selector matches nothing or the requested attribute is missing.
func (cr CompiledRule) ExtractNode(node *goquery.Selection) (string, bool) {
	el := node.First()
	if cr.matcher != nil {
		el = node.FindMatcher(cr.matcher).First()
	}
	if el.Length() == 0 {
		return "", false
	}

	var raw string
	if cr.Rule.Attribute != "" {
		value, exists := el.Attr(cr.Rule.Attribute)
		if !exists {
			return "", false
		}
		raw = value
	} else {
		raw = el.Text()
	}

	return cr.Rule.Format(Normalize(raw, cr.Rule.IsInline())), true
}

// ExtractNode compiles rule and extracts it from node in one go
func ExtractNode(node *goquery.Selection, rule types.FieldRule) (string, bool, error) {
	cr := CompiledRule{Rule: rule}
	if rule.Value != "" {
		matcher, err := CompileSelector(rule.Value)
		if err != nil {
			return "", false, err
		}
		cr.matcher = matcher
	}
	content, ok := cr.ExtractNode(node)
	return content, ok, nil
}

// Collect produces one record per node, in document order. Fields that
// extract to nothing, including the empty string, are left out.
func Collect(nodes *goquery.Selection, rules CompiledRules) []types.Record {
	records := make([]types.Record, 0, nodes.Length())
	nodes.Each(func(_ int, node *goquery.Selection) {
		record := types.Record{}
		for _, rule := range rules {
			if content, ok := rule.ExtractNode(node); ok && content != "" {
				record[rule.Name] = content
			}
		}
		records = append(records, record)
	})
	return records
}

// SelectRoot compiles the root rule and applies it to the whole document
func SelectRoot(doc *goquery.Document, root types.FieldRule) (*goquery.Selection, error) {
	matcher, err := CompileSelector(root.Value)
	if err != nil {
		return nil, fmt.Errorf("root: %w", err)
	}
	return doc.FindMatcher(matcher), nil
}
