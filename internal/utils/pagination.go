// Package utils holds small helpers shared by the services and handlers.
package utils

import (
	"strconv"
	"strings"
)

// Limits bounds a page size: zero or negative sizes become Default, sizes
// above Max are clipped. Max <= 0 means unbounded.
type Limits struct {
	Default int
	Max     int
}

// ListLimits applies to modmail and suggestion listings.
var ListLimits = Limits{Default: 20, Max: 100}

// Page is a normalized 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Page normalizes number and size.
func (l Limits) Page(number, size int) Page {
	return Page{Number: max(number, 1), Size: l.Clamp(size)}
}

// Clamp bounds n to (0, Max].
func (l Limits) Clamp(n int) int {
	if n <= 0 {
		n = l.Default
	}
	if l.Max > 0 && n > l.Max {
		n = l.Max
	}
	return n
}

// Offset is the number of rows before the page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// Pages returns how many pages of p.Size hold total rows.
func (p Page) Pages(total int64) int {
	if p.Size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// IntOr parses a decimal query value, returning def when s is blank or
// malformed.
func IntOr(s string, def int) int {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
