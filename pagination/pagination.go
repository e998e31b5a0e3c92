// Package pagination provides page/limit parameters for list endpoints.
//
// Paging is opt-in: when a client sends neither page nor limit the whole
// collection is returned, otherwise missing values fall back to defaults and
// the limit is capped.
package pagination

import "fmt"

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// MaxPage keeps (Page-1)*Limit far from int overflow.
	MaxPage = 1_000_000
)

// Params is meant to be embedded into use case input structs.
type Params struct {
	Page  int `query:"page"  json:"page,omitempty"  validate:"gte=0,lte=1000000"`
	Limit int `query:"limit" json:"limit,omitempty" validate:"gte=0,lte=100"`
}

// IsSet reports whether the client asked for a page.
func (p Params) IsSet() bool {
	return p.Page > 0 || p.Limit > 0
}

// Normalize fills defaults and caps page and limit. It is a no-op for unset params.
func (p *Params) Normalize() {
	if !p.IsSet() {
		return
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// ToLimitOffset returns SQL LIMIT and OFFSET values. Both are zero for unset params.
func (p Params) ToLimitOffset() (int, int) {
	if !p.IsSet() {
		return 0, 0
	}
	n := p
	n.Normalize()
	return n.Limit, (n.Page - 1) * n.Limit
}

func (p Params) String() string {
	if !p.IsSet() {
		return "all"
	}
	return fmt.Sprintf("page=%d limit=%d", p.Page, p.Limit)
}
