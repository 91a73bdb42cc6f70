package ocr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// menuLinePattern matches a menu name followed by a price, e.g.
// "김치찌개 8,000원" or "순두부찌개 9500".
var menuLinePattern = regexp.MustCompile(`^(.+?)\s+([0-9][0-9,.]*)\s*원?$`)

// parsePrice normalizes a Korean price string like "8,000원" to an integer
// amount of won.
func parsePrice(raw string) (int, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSuffix(cleaned, "원")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("empty price")
	}

	price, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q", raw)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price %q", raw)
	}
	return price, nil
}

// parsedLine is one raw-text line split into name and optional price text.
type parsedLine struct {
	name     string
	priceRaw string
}

// splitMenuLines extracts name/price pairs from plain OCR text, one item per
// line. Lines without a recognizable price become name-only items.
func splitMenuLines(raw string) []parsedLine {
	var lines []parsedLine
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := menuLinePattern.FindStringSubmatch(line); m != nil {
			lines = append(lines, parsedLine{name: strings.TrimSpace(m[1]), priceRaw: m[2]})
			continue
		}
		lines = append(lines, parsedLine{name: line})
	}
	return lines
}
