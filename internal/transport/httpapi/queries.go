package httpapi

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/queryir"
)

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.queries.Status(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *server) handleEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}

	entry, err := s.queries.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	// A missing entry is null, not an error.
	writeJSON(w, http.StatusOK, entry)
}

func (s *server) handleEntries(w http.ResponseWriter, r *http.Request) {
	view, err := parseView(r.URL.Query())
	if err != nil {
		s.fail(w, err)
		return
	}

	entries, err := s.queries.View(r.Context(), view)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// parseView selects at most one view from the query string:
// limit, start+end, title or content. No parameters selects all entries.
func parseView(q url.Values) (queryir.View, error) {
	var views []queryir.View

	if q.Has("limit") {
		limit, err := strconv.Atoi(q.Get("limit"))
		if err != nil {
			return nil, ir.NewError(ir.CodeInvalidArgument, "limit must be an integer")
		}
		views = append(views, queryir.Latest{Limit: limit})
	}

	if q.Has("start") || q.Has("end") {
		if !q.Has("start") || !q.Has("end") {
			return nil, ir.NewError(ir.CodeInvalidArgument, "start and end must be given together")
		}
		start, err := strconv.ParseUint(q.Get("start"), 10, 64)
		if err != nil {
			return nil, ir.NewError(ir.CodeInvalidArgument, "start must be a timestamp in microseconds")
		}
		end, err := strconv.ParseUint(q.Get("end"), 10, 64)
		if err != nil {
			return nil, ir.NewError(ir.CodeInvalidArgument, "end must be a timestamp in microseconds")
		}
		views = append(views, queryir.Range{Start: start, End: end})
	}

	if q.Has("title") {
		views = append(views, queryir.TitleSearch{Query: q.Get("title")})
	}
	if q.Has("content") {
		views = append(views, queryir.ContentSearch{Query: q.Get("content")})
	}

	switch len(views) {
	case 0:
		return queryir.All{}, nil
	case 1:
		return views[0], nil
	default:
		return nil, ir.NewError(ir.CodeInvalidArgument, "choose one of limit, start/end, title or content")
	}
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, ir.NewError(ir.CodeInvalidArgument, "entry id must be a non-negative integer")
	}
	return id, nil
}
