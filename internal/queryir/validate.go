package queryir

import (
	"fmt"

	"github.com/roach88/diary/internal/ir"
)

// Validate checks the parameters of a view.
// Returns an *ir.Error with CodeInvalidArgument when they are out of range.
//
// Validate is a pure function with no side effects.
func Validate(view View) error {
	switch v := view.(type) {
	case All, TitleSearch, ContentSearch:
		return nil
	case Latest:
		if v.Limit <= 0 {
			return ir.NewError(ir.CodeInvalidArgument, "limit must be positive").
				WithDetail("limit", fmt.Sprintf("%d", v.Limit))
		}
		return nil
	case Range:
		if v.Start > v.End {
			return ir.NewError(ir.CodeInvalidArgument, "start timestamp must be before end timestamp").
				WithDetail("start", fmt.Sprintf("%d", v.Start)).
				WithDetail("end", fmt.Sprintf("%d", v.End))
		}
		return nil
	case nil:
		return ir.NewError(ir.CodeInvalidArgument, "view is required")
	default:
		return ir.NewError(ir.CodeInvalidArgument, "unsupported view %T", view)
	}
}

// Name returns the query-surface name of a view.
func Name(view View) string {
	switch view.(type) {
	case All:
		return "entries"
	case Latest:
		return "latestEntries"
	case Range:
		return "entriesInRange"
	case TitleSearch:
		return "searchByTitle"
	case ContentSearch:
		return "searchByContent"
	default:
		return fmt.Sprintf("%T", view)
	}
}
