// Package view computes the filtered, sorted and aggregated projection of the
// card collection shown by the listings manager and targeted by bulk actions.
package view

import (
	"cmp"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/cardshop/cardshop/internal/model"
)

// StatusAll disables status filtering.
const StatusAll = "all"

// Sort fields.
const (
	SortName   = "name"
	SortPrice  = "price"
	SortDate   = "date"
	SortStatus = "status"
)

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// Query selects and orders a projection.
type Query struct {
	Status    string // all | inventory | listing | sold
	Search    string
	Sort      string // name | price | date | status
	Direction string // asc | desc
}

// DefaultQuery shows everything, newest first.
func DefaultQuery() Query {
	return Query{Status: StatusAll, Sort: SortDate, Direction: Desc}
}

// Stats is the aggregation over a projection.
type Stats struct {
	Total      int                  `json:"total"`
	ByStatus   map[model.Status]int `json:"byStatus"`
	TotalValue float64              `json:"totalValue"`
}

// ParseQuery reads status, q, sort and dir from query-string values. Missing
// values take DefaultQuery's; unknown values are a validation error.
func ParseQuery(v url.Values) (Query, error) {
	q := DefaultQuery()
	if s := strings.ToLower(strings.TrimSpace(v.Get("status"))); s != "" {
		q.Status = s
	}
	q.Search = strings.TrimSpace(v.Get("q"))
	if s := strings.ToLower(strings.TrimSpace(v.Get("sort"))); s != "" {
		q.Sort = s
	}
	if s := strings.ToLower(strings.TrimSpace(v.Get("dir"))); s != "" {
		q.Direction = s
	}
	return q, q.Validate()
}

// Validate reports unknown filter, sort or direction values.
func (q Query) Validate() error {
	var problems []string
	if q.Status != "" && q.Status != StatusAll && !model.Status(q.Status).Valid() {
		problems = append(problems, fmt.Sprintf("unknown status filter %q", q.Status))
	}
	switch q.Sort {
	case "", SortName, SortPrice, SortDate, SortStatus:
	default:
		problems = append(problems, fmt.Sprintf("unknown sort field %q", q.Sort))
	}
	switch q.Direction {
	case "", Asc, Desc:
	default:
		problems = append(problems, fmt.Sprintf("unknown sort direction %q", q.Direction))
	}
	if len(problems) > 0 {
		return eris.Wrap(model.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

// Project filters cards by status and search text, then sorts them stably.
// The input slice is not modified.
func Project(cards []model.Card, q Query) []model.Card {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(q.Search))

	out := make([]model.Card, 0, len(cards))
	for _, c := range cards {
		if q.Status != "" && q.Status != StatusAll && string(c.Status) != q.Status {
			continue
		}
		if needle != "" && !matches(fold, c, needle) {
			continue
		}
		out = append(out, c)
	}

	compare := comparator(fold, q.Sort)
	desc := q.Direction == Desc
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return compare(out[j], out[i]) < 0
		}
		return compare(out[i], out[j]) < 0
	})
	return out
}

// Aggregate counts cards per status and sums their value.
func Aggregate(cards []model.Card) Stats {
	s := Stats{
		Total: len(cards),
		ByStatus: map[model.Status]int{
			model.StatusInventory: 0,
			model.StatusListing:   0,
			model.StatusSold:      0,
		},
	}
	for _, c := range cards {
		s.ByStatus[c.Status]++
		s.TotalValue += c.Value()
	}
	return s
}

func matches(fold cases.Caser, c model.Card, needle string) bool {
	for _, field := range []string{c.Name, c.Set, c.CardNumber, c.Game} {
		if strings.Contains(fold.String(field), needle) {
			return true
		}
	}
	return false
}

func comparator(fold cases.Caser, field string) func(a, b model.Card) int {
	switch field {
	case SortName:
		return func(a, b model.Card) int {
			return cmp.Compare(fold.String(a.Name), fold.String(b.Name))
		}
	case SortPrice:
		return func(a, b model.Card) int {
			return cmp.Compare(a.Value(), b.Value())
		}
	case SortStatus:
		return func(a, b model.Card) int {
			return cmp.Compare(a.Status, b.Status)
		}
	default:
		return func(a, b model.Card) int {
			return cmp.Compare(a.SortDate(), b.SortDate())
		}
	}
}
