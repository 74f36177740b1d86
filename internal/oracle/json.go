package oracle

import (
	"fmt"
	"strings"
)

// ExtractJSON returns the outermost JSON value delimited by open and close
// found in text. Models sometimes wrap JSON in prose or code fences.
func ExtractJSON(text string, open, close byte) (string, error) {
	trimmed := strings.TrimSpace(text)
	start := strings.IndexByte(trimmed, open)
	end := strings.LastIndexByte(trimmed, close)
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("missing json %c...%c", open, close)
	}
	return trimmed[start : end+1], nil
}
