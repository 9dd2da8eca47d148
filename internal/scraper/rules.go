package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Field names produced by the default rules
const (
	FieldDay          = "day"
	FieldDateLabel    = "date_label"
	FieldArtist       = "artist"
	FieldTime         = "time"
	FieldVenue        = "venue"
	FieldNeighborhood = "neighbourhood"
	FieldURL          = "url"
)

// Rule extracts one field from an event block.
//
// Selector picks the first matching element of the block; its whitespace
// collapsed text (or Attr, when set) is the candidate value. An empty Selector
// means the raw block markup is the candidate. Pattern, when set, must match
// the candidate; its first capture group (or the whole match when there are no
// groups) becomes the value. A rule fails when the selector finds nothing, the
// pattern does not match, or the value is empty
type Rule struct {
	Field    string
	Selector string
	Attr     string
	Pattern  *regexp.Regexp
}

// DefaultRules are the extraction rules for the hothousejazz.com calendar
var DefaultRules = []Rule{
	{Field: FieldDay, Selector: ".al-date", Pattern: regexp.MustCompile(`^(\d{2})(?:\s|$)`)},
	{Field: FieldDateLabel, Selector: ".al-date span"},
	{Field: FieldArtist, Selector: "h6"},
	{Field: FieldTime, Selector: "p.text-left"},
	{Field: FieldVenue, Selector: `a[target="_blank"]`},
	{Field: FieldNeighborhood, Selector: "p:not([class])"},
	{Field: FieldURL, Pattern: regexp.MustCompile(`event_detail/\d+`)},
}

// blockPattern matches one event block: the opening calendar-box div up to the
// first closing div on its own line, indented by exactly nine whitespace
// characters
var blockPattern = regexp.MustCompile(`<div class="calendar-box">[\s\S]*?\n\s{9}</div>`)

// Extract applies the rule to a parsed block. raw is the block's markup
func (r Rule) Extract(doc *goquery.Document, raw string) (string, bool) {
	value := raw

	if r.Selector != "" {
		sel := doc.Find(r.Selector).First()
		if sel.Length() == 0 {
			return "", false
		}
		if r.Attr != "" {
			attr, ok := sel.Attr(r.Attr)
			if !ok {
				return "", false
			}
			value = attr
		} else {
			value = collapseText(sel)
		}
	}

	if r.Pattern != nil {
		matches := r.Pattern.FindStringSubmatch(value)
		if matches == nil {
			return "", false
		}
		value = matches[0]
		if len(matches) > 1 {
			value = matches[1]
		}
	}

	value = strings.TrimSpace(value)
	return value, value != ""
}

// collapseText returns the text of a selection with every run of whitespace
// replaced by a single space. Text from sibling nodes separated only by a tag
// (such as <br>) stays separated
func collapseText(sel *goquery.Selection) string {
	var parts []string
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			parts = append(parts, c.Text())
			return
		}
		parts = append(parts, collapseText(c))
	})
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
