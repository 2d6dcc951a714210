package scoring

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// Claim is one assertion extracted from a submission, with a crude
// confidence signal used by the debate engine to pick the weakest one.
type Claim struct {
	Text       string
	Section    string
	HasNumber  bool
	HasHedging bool
}

// ParsedSubmission is the structured view of a free-form agent analysis.
// Agents write markdown; sections are keyed by lower-cased heading text.
type ParsedSubmission struct {
	Sections       map[string]string
	Claims         []Claim
	Numbers        []float64
	Fields         map[string]float64 // labeled numerics, e.g. "delta" -> -0.42
	Recommendation string
}

var (
	// $1.23B / 45.6% / -0.42 / 1,234.5 style numerics
	numberRe = regexp.MustCompile(`-?\$?\d[\d,]*\.?\d*\s*(?:%|[bB]illion|[mM]illion|[bBmMkK])?`)
	// "delta: -0.42", "Vega = 0.18", "P&L of -135"
	fieldRe = regexp.MustCompile(`(?i)\b(delta|gamma|theta|vega|rho|p&l|pnl|profit|eps|revenue|margin|beta|var)\b[^-\d]{0,12}(-?\$?\d[\d,]*\.?\d*)`)

	hedgingWords = []string{"might", "maybe", "possibly", "unclear", "uncertain", "hard to say", "roughly", "i think", "not sure"}
)

// ParseSubmission extracts sections, claims and labeled numerics from a
// markdown analysis. Never fails: an empty or unparseable payload yields an
// empty result that downstream scorers degrade to zero.
func ParseSubmission(payload string) ParsedSubmission {
	out := ParsedSubmission{
		Sections: make(map[string]string),
		Fields:   make(map[string]float64),
	}
	if strings.TrimSpace(payload) == "" {
		return out
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(payload))

	current := "body"
	var sectionText strings.Builder
	flush := func() {
		if sectionText.Len() > 0 {
			out.Sections[current] += sectionText.String()
			sectionText.Reset()
		}
	}

	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch n := node.(type) {
		case *ast.Heading:
			flush()
			current = strings.ToLower(strings.TrimSpace(nodeText(n)))
			if current == "" {
				current = "body"
			}
		case *ast.Paragraph, *ast.ListItem:
			text := strings.TrimSpace(nodeText(node))
			if text == "" {
				return ast.GoToNext
			}
			sectionText.WriteString(text)
			sectionText.WriteString("\n")
			out.Claims = append(out.Claims, newClaim(text, current))
			return ast.SkipChildren
		}
		return ast.GoToNext
	})
	flush()

	lower := strings.ToLower(payload)
	out.Recommendation = extractRecommendation(lower)
	out.Numbers = extractNumbers(payload)
	for _, m := range fieldRe.FindAllStringSubmatch(payload, -1) {
		if v, ok := parseNumber(m[2]); ok {
			key := normalizeFieldName(m[1])
			if _, seen := out.Fields[key]; !seen {
				out.Fields[key] = v
			}
		}
	}
	return out
}

func newClaim(text, section string) Claim {
	lower := strings.ToLower(text)
	c := Claim{
		Text:      text,
		Section:   section,
		HasNumber: numberRe.MatchString(text),
	}
	for _, w := range hedgingWords {
		if strings.Contains(lower, w) {
			c.HasHedging = true
			break
		}
	}
	return c
}

func nodeText(node ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if leaf := n.AsLeaf(); leaf != nil {
			b.Write(leaf.Literal)
			b.WriteString(" ")
		}
		return ast.GoToNext
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

// extractRecommendation pulls the first directional call out of the text.
func extractRecommendation(lower string) string {
	for _, rec := range []string{"beat", "miss", "buy", "sell", "hold"} {
		if strings.Contains(lower, rec) {
			return rec
		}
	}
	return ""
}

func extractNumbers(text string) []float64 {
	var out []float64
	for _, m := range numberRe.FindAllString(text, -1) {
		if v, ok := parseNumber(m); ok {
			out = append(out, v)
		}
	}
	return out
}

// parseNumber handles $, thousands separators and B/M/K suffixes.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	mult := 1.0
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "billion"), strings.HasSuffix(lower, "b"):
		mult = 1e9
	case strings.Contains(lower, "million"), strings.HasSuffix(lower, "m"):
		mult = 1e6
	case strings.HasSuffix(lower, "k"):
		mult = 1e3
	case strings.HasSuffix(s, "%"):
		// Percent values stay in percent units.
	}
	cleaned := strings.TrimFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9') && r != '.' && r != '-'
	})
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" || cleaned == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}

func normalizeFieldName(name string) string {
	switch strings.ToLower(name) {
	case "p&l", "pnl", "profit":
		return "pnl"
	default:
		return strings.ToLower(name)
	}
}

// SectionContaining returns the first section whose name contains the given
// keyword, or empty.
func (p ParsedSubmission) SectionContaining(keyword string) string {
	for name, text := range p.Sections {
		if strings.Contains(name, keyword) {
			return text
		}
	}
	return ""
}

// ContainsAny reports whether any of the terms occurs in the payload text,
// case-insensitive.
func ContainsAny(text string, terms []string) int {
	lower := strings.ToLower(text)
	found := 0
	for _, t := range terms {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			found++
		}
	}
	return found
}
