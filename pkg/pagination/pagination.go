package pagination

import (
	"strconv"
	"strings"
)

const (
	// DefaultSize is the standard page size when a size is not provided.
	DefaultSize = 12
	// MaxSize caps how many items any page can request.
	MaxSize = 50
)

// Params holds page-number pagination inputs. Pages are zero-based.
type Params struct {
	Page int
	Size int
}

// NormalizeSize enforces the default and maximum page sizes.
func NormalizeSize(size int) int {
	if size <= 0 {
		return DefaultSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// Normalize clamps page to zero or more and size to the allowed range.
func (p Params) Normalize() Params {
	page := p.Page
	if page < 0 {
		page = 0
	}
	return Params{Page: page, Size: NormalizeSize(p.Size)}
}

// Offset is the index of the first item on the page.
func (p Params) Offset() int {
	n := p.Normalize()
	return n.Page * n.Size
}

// TotalPages returns how many pages total items fill.
func TotalPages(total, size int) int {
	size = NormalizeSize(size)
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// ParseParams reads page and size query values, ignoring malformed input.
func ParseParams(page, size string) Params {
	p := Params{}
	if v, err := strconv.Atoi(strings.TrimSpace(page)); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(size)); err == nil {
		p.Size = v
	}
	return p.Normalize()
}
