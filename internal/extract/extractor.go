// Package extract turns transcribed speech into structured estimate line items.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Item is a line item drafted from one segment of transcribed text.
// Quantity and Price are nil when the segment did not mention them;
// unknown is not the same as zero.
type Item struct {
	Name     string
	Quantity *float64
	Price    *float64
}

// ClientInfo holds contact fields for the client being quoted. All fields
// are optional; the extractor itself never fills them in, but upstream
// callers may attach contact data so it rides along into the draft merge.
type ClientInfo struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

// Result is the output of one extraction pass.
type Result struct {
	// Description is always the verbatim input text, whether or not any
	// items were found.
	Description string
	Items       []Item
	Client      ClientInfo
	Notes       string
}

var (
	// A dollar sign followed by digits and an optional two-decimal fraction.
	pricePattern = regexp.MustCompile(`\$(\d+(?:\.\d{2})?)`)

	// Digits, whitespace, then a unit word. Case-insensitive.
	quantityPattern = regexp.MustCompile(`(?i)(\d+)\s+(?:pieces?|units?|items?)\b`)
)

// Extract scans text for quantity/price mentions and returns draft line
// items, one per sentence-like segment that contained at least one match.
//
// Segmentation splits on "." only. That misreads abbreviations and decimal
// numbers ("$45.00" splits mid-price, leaving "$45" in the segment), but
// item positions on existing estimates depend on this exact segmentation,
// so it stays.
func Extract(text string) Result {
	result := Result{Description: text}

	for _, segment := range strings.Split(text, ".") {
		name := strings.TrimSpace(segment)
		if name == "" {
			continue
		}

		item := Item{Name: name}
		matched := false

		// Only the first match of each kind per segment counts. Repeated
		// mentions within a segment are ignored rather than summed.
		if m := pricePattern.FindStringSubmatch(segment); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				item.Price = &v
				matched = true
			}
		}
		if m := quantityPattern.FindStringSubmatch(segment); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				item.Quantity = &v
				matched = true
			}
		}

		if matched {
			// The whole trimmed segment becomes the label; the matched
			// substrings are not excised. Users see the sentence they spoke.
			result.Items = append(result.Items, item)
		}
	}

	return result
}
