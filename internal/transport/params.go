package transport

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"dscatalog/internal/domain"

	"github.com/go-chi/chi/v5"
)

// pageRequest reads page, size and sort ("field" or "field,dir") from the
// query string. Absent values fall back to page 0 and the default size;
// range checks are left to domain.PageRequest.Validate.
func pageRequest(r *http.Request) (domain.PageRequest, error) {
	q := r.URL.Query()
	req := domain.PageRequest{Page: 0, Size: domain.DefaultPageSize}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return req, domain.NewValidation(fmt.Sprintf("invalid page %q", raw))
		}
		req.Page = page
	}

	if raw := q.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return req, domain.NewValidation(fmt.Sprintf("invalid size %q", raw))
		}
		req.Size = size
	}

	sort, err := parseSort(q.Get("sort"))
	if err != nil {
		return req, err
	}
	req.Sort = sort
	return req, nil
}

func parseSort(raw string) (domain.Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Sort{}, nil
	}

	field, dir, _ := strings.Cut(raw, ",")
	direction, err := domain.ParseDirection(dir)
	if err != nil {
		return domain.Sort{}, err
	}
	return domain.Sort{Field: strings.TrimSpace(field), Direction: direction}, nil
}

// productFilter reads category (a comma separated id list) and name. A
// category id of 0 means "no filter" and is dropped.
func productFilter(r *http.Request) (domain.ProductFilter, error) {
	q := r.URL.Query()
	filter := domain.ProductFilter{Name: strings.TrimSpace(q.Get("name"))}

	for _, raw := range q["category"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id < 0 {
				return filter, domain.NewValidation(fmt.Sprintf("invalid category id %q", part))
			}
			if id != 0 {
				filter.CategoryIDs = append(filter.CategoryIDs, id)
			}
		}
	}
	return filter, nil
}

// pathID parses the {id} route parameter
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidation(fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}

func location(r *http.Request, id int64) string {
	return strings.TrimSuffix(r.URL.Path, "/") + "/" + strconv.FormatInt(id, 10)
}
