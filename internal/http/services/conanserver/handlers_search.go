package conanserver

import (
	"net/http"
	"strings"

	"github.com/cs3conan/conan-server/pkg/conanpath"
	"github.com/cs3conan/conan-server/pkg/iniconf"
)

const exportMarker = "/0/export/"

// handleRecipeSearch implements GET /v1/conans/search?q=<pattern>. It
// walks the whole store; any key whose path contains "/0/export/" yields
// a coordinate prefix up to (not including)
// that marker. A coordinate using the default user/channel ("/_/_") is
// reported as just "name/version". Matching is a plain substring test
// against q, deduplicated, in encounter order.
func (s *Service) handleRecipeSearch(w http.ResponseWriter, r *http.Request, m []string) {
	q := r.URL.Query().Get("q")

	keys, err := s.store.List(r.Context(), "")
	if err != nil {
		writeError(w, r, err)
		return
	}

	seen := map[string]bool{}
	var results []string
	for _, k := range keys {
		idx := strings.Index(k, exportMarker)
		if idx < 0 {
			continue
		}
		coord := k[:idx]
		if strings.Contains(coord, "/_/_") {
			parts := strings.SplitN(coord, "/", 3)
			if len(parts) >= 2 {
				coord = parts[0] + "/" + parts[1]
			}
		}
		if q != "" && !strings.Contains(coord, q) {
			continue
		}
		if seen[coord] {
			continue
		}
		seen[coord] = true
		results = append(results, coord)
	}
	if results == nil {
		results = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

const packageMarker = "/0/package/"

// handleBinarySearch implements GET /v1/conans/<coord>/search: list keys
// under "<coord>/0/package/", find the first
// conaninfo.txt, parse it, and emit a JSON object keyed by the binary
// hash whose value mirrors the INI structure plus a top-level
// "recipe_hash" field lifted from [recipe_hash]'s first key.
func (s *Service) handleBinarySearch(w http.ResponseWriter, r *http.Request, m []string) {
	coord, err := conanpath.ParseCoordinate(m[1])
	if err != nil {
		writeError(w, r, err)
		return
	}

	prefix := conanpath.CoordRoot(coord) + packageMarker
	keys, err := s.store.List(r.Context(), conanpath.CoordRoot(coord)+"/0/package")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var hash, infoKey string
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) || !strings.HasSuffix(k, "/conaninfo.txt") {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		segs := strings.SplitN(rest, "/", 2)
		if len(segs) != 2 {
			continue
		}
		hash = segs[0]
		infoKey = k
		break
	}
	if infoKey == "" {
		writeNotFound(w, r)
		return
	}

	data, err := s.store.Get(r.Context(), infoKey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := iniconf.Parse(data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entry := map[string]interface{}{}
	for _, sec := range doc.Sections() {
		if sec.Name() == "recipe_hash" {
			continue
		}
		section := map[string]string{}
		for _, k := range sec.Keys() {
			section[k] = sec.Get(k)
		}
		entry[sec.Name()] = section
	}
	recipeHash := ""
	if rh := doc.Section("recipe_hash"); rh != nil {
		if keys := rh.Keys(); len(keys) > 0 {
			recipeHash = keys[0]
		}
	}
	entry["recipe_hash"] = recipeHash

	writeJSON(w, http.StatusOK, map[string]interface{}{hash: entry})
}
