// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/litscout/internal/engine"
	"github.com/pdiddy/litscout/pkg/types"
)

var errBadParam = errors.New("invalid query parameter")

// parseRequest reads paging, weights and candidate filters from the URL
// query. Absent parameters keep the values in defaults. When only one of
// paper_weight and concept_weight is given, the other is its complement; a
// supplied pair is passed on as given, 0/0 included.
func parseRequest(r *http.Request, defaults engine.Params) (engine.Request, error) {
	q := r.URL.Query()
	req := engine.Request{Params: defaults}
	var err error

	if req.Params.Offset, err = intParam(q, "offset", defaults.Offset); err != nil {
		return req, err
	}
	if req.Params.Limit, err = intParam(q, "limit", defaults.Limit); err != nil {
		return req, err
	}
	if v := q.Get("min_score"); v != "" {
		f, err := parseFloat("min_score", v)
		if err != nil {
			return req, err
		}
		req.Params = req.Params.WithMinScore(f)
	}

	pw, hasPW := q["paper_weight"]
	cw, hasCW := q["concept_weight"]
	if hasPW || hasCW {
		var b types.Blend
		if hasPW {
			if b.Direct, err = parseFloat("paper_weight", pw[0]); err != nil {
				return req, err
			}
		}
		if hasCW {
			if b.Concept, err = parseFloat("concept_weight", cw[0]); err != nil {
				return req, err
			}
		}
		switch {
		case !hasCW:
			b.Concept = 1 - b.Direct
		case !hasPW:
			b.Direct = 1 - b.Concept
		}
		req.Params = req.Params.WithBlend(b)
	}

	req.Filter.Match = q.Get("match")
	if req.Filter.YearFrom, err = intParam(q, "year_from", 0); err != nil {
		return req, err
	}
	if req.Filter.YearTo, err = intParam(q, "year_to", 0); err != nil {
		return req, err
	}
	return req, nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", errBadParam, name, v)
	}
	return n, nil
}

func parseFloat(name, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", errBadParam, name, v)
	}
	return f, nil
}
