package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/ternarybob/greattrades/internal/handlers"
)

// methods dispatches on the request method. Unlisted methods get 405 with an Allow header.
type methods map[string]http.HandlerFunc

func (m methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if handler, ok := m[r.Method]; ok && handler != nil {
		handler(w, r)
		return
	}

	allowed := make([]string, 0, len(m))
	for method, handler := range m {
		if handler != nil {
			allowed = append(allowed, method)
		}
	}
	sort.Strings(allowed)

	w.Header().Set("Allow", strings.Join(allowed, ", "))
	handlers.WriteError(w, http.StatusMethodNotAllowed, "Method "+r.Method+" not allowed on "+r.URL.Path)
}
