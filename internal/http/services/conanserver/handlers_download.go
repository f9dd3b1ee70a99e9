package conanserver

import (
	"crypto/md5"
	"encoding/hex"
	"net/http"

	"github.com/cs3conan/conan-server/pkg/conanpath"
	"github.com/cs3conan/conan-server/pkg/iniconf"
)

func absoluteURL(r *http.Request, key string) string {
	// An absent Host header produces "http:///..." rather than being
	// treated as an error, matching the Conan client's own tolerance.
	return "http://" + r.Host + "/" + key
}

// handleRecipeDownloadURLs implements GET /v1/conans/<coord>/download_urls.
func (s *Service) handleRecipeDownloadURLs(w http.ResponseWriter, r *http.Request, m []string) {
	coord, err := conanpath.ParseCoordinate(m[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	urls := map[string]string{}
	for _, f := range conanpath.PkgSrcList {
		key, err := conanpath.RecipeKey(coord, 0, f)
		if err != nil {
			continue
		}
		exists, err := s.store.Exists(r.Context(), key)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if exists {
			urls[f] = absoluteURL(r, key)
		}
	}
	if len(urls) == 0 {
		writeNotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, urls)
}

// handleBinaryDownloadURLs implements
// GET /v1/conans/<coord>/packages/<hash>/download_urls.
func (s *Service) handleBinaryDownloadURLs(w http.ResponseWriter, r *http.Request, m []string) {
	coord, err := conanpath.ParseCoordinate(m[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	hash, err := conanpath.ParseHash(m[2])
	if err != nil {
		writeError(w, r, err)
		return
	}
	urls := map[string]string{}
	for _, f := range conanpath.PkgBinList {
		key, err := conanpath.BinaryKey(coord, 0, hash, 0, f)
		if err != nil {
			continue
		}
		exists, err := s.store.Exists(r.Context(), key)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if exists {
			urls[f] = absoluteURL(r, key)
		}
	}
	if len(urls) == 0 {
		writeNotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, urls)
}

// handleBinaryDigest implements GET /v1/conans/<coord>/packages/<hash>:
// for each canonical binary file compute the MD5 of its bytes, lowercase
// hex; absent files map to JSON null; 404 only if none of the files
// exist.
func (s *Service) handleBinaryDigest(w http.ResponseWriter, r *http.Request, m []string) {
	coord, err := conanpath.ParseCoordinate(m[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	hash, err := conanpath.ParseHash(m[2])
	if err != nil {
		writeError(w, r, err)
		return
	}
	digests, any, err := s.computeDigests(r, coord, 0, hash, 0, conanpath.PkgBinList, func(f string, recipeRev, binRev int) (string, error) {
		return conanpath.BinaryKey(coord, recipeRev, hash, binRev, f)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !any {
		writeNotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, digests)
}

// handleRecipeDigest implements GET /v1/conans/<coord>/digest, the
// recipe-level sibling of handleBinaryDigest: the same client family
// that asks for a binary digest always pairs it with a recipe-level
// manifest digest.
func (s *Service) handleRecipeDigest(w http.ResponseWriter, r *http.Request, m []string) {
	coord, err := conanpath.ParseCoordinate(m[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	digests := map[string]interface{}{}
	any := false
	for _, f := range conanpath.PkgSrcList {
		key, err := conanpath.RecipeKey(coord, 0, f)
		if err != nil {
			continue
		}
		sum, ok, err := s.md5OfKey(r, key)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if ok {
			digests[f] = sum
			any = true
		} else {
			digests[f] = nil
		}
	}
	if !any {
		writeNotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, digests)
}

// handleConanInfo implements
// GET /v1/conans/<coord>/packages/<hash>/conaninfo: the single-binary
// conaninfo.txt passthrough, the same INI document one entry of
// handleBinarySearch's response describes, without scanning the whole
// package tree.
func (s *Service) handleConanInfo(w http.ResponseWriter, r *http.Request, m []string) {
	coord, err := conanpath.ParseCoordinate(m[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	hash, err := conanpath.ParseHash(m[2])
	if err != nil {
		writeError(w, r, err)
		return
	}
	key, err := conanpath.BinaryKey(coord, 0, hash, 0, "conaninfo.txt")
	if err != nil {
		writeError(w, r, err)
		return
	}
	exists, err := s.store.Exists(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !exists {
		writeNotFound(w, r)
		return
	}
	data, err := s.store.Get(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := iniconf.Parse(data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := map[string]interface{}{}
	for _, sec := range doc.Sections() {
		if sec.Name() == "recipe_hash" {
			continue
		}
		section := map[string]string{}
		for _, k := range sec.Keys() {
			section[k] = sec.Get(k)
		}
		out[sec.Name()] = section
	}
	recipeHash := ""
	if rh := doc.Section("recipe_hash"); rh != nil {
		if keys := rh.Keys(); len(keys) > 0 {
			recipeHash = keys[0]
		}
	}
	out["recipe_hash"] = recipeHash
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) md5OfKey(r *http.Request, key string) (string, bool, error) {
	exists, err := s.store.Exists(r.Context(), key)
	if err != nil {
		return "", false, err
	}
	if !exists {
		return "", false, nil
	}
	data, err := s.store.Get(r.Context(), key)
	if err != nil {
		return "", false, err
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), true, nil
}

// computeDigests is the existence+hash sweep used by the binary digest
// handler, generic over the keyOf closure. handleRecipeDigest runs its
// own equivalent loop and does not call it.
func (s *Service) computeDigests(r *http.Request, coord conanpath.Coordinate, recipeRev int, hash string, binRev int, files []string, keyOf func(f string, recipeRev, binRev int) (string, error)) (map[string]interface{}, bool, error) {
	digests := map[string]interface{}{}
	any := false
	for _, f := range files {
		key, err := keyOf(f, recipeRev, binRev)
		if err != nil {
			continue
		}
		sum, ok, err := s.md5OfKey(r, key)
		if err != nil {
			return nil, false, err
		}
		if ok {
			digests[f] = sum
			any = true
		} else {
			digests[f] = nil
		}
	}
	return digests, any, nil
}
