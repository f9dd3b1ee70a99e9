// URL pattern registry: a fixed table of method+regex pairs with named
// captures "path" and, where applicable, "hash". First match wins;
// requests matching nothing fall through to the generic GET-file/
// PUT-file handler (handleGenericGet/handleGenericPut).
package conanserver

import (
	"net/http"
	"regexp"
)

// coordPattern matches a 2- or 4-segment package coordinate:
// "name/version" or "name/version/user/channel".
const coordPattern = `(?P<path>[^/]+/[^/]+(?:/[^/]+/[^/]+)?)`

// hashPattern matches the lowercase-hex binary hash grammar.
const hashPattern = `(?P<hash>[0-9a-f]+)`

// route pairs an HTTP method and compiled pattern with the handler
// function that serves it. Handlers are method expressions that receive
// the *Service explicitly, avoiding class-dispatched handler objects;
// the table is built once in buildRoutes.
type route struct {
	method  string
	pattern *regexp.Regexp
	handler func(s *Service, w http.ResponseWriter, r *http.Request, m []string)
}

func mustCompile(pat string) *regexp.Regexp {
	return regexp.MustCompile("^" + pat + "$")
}

// buildRoutes returns the fixed v1/v2 route table. Order matters: the
// first matching (method, pattern) pair wins.
func buildRoutes() []route {
	return []route{
		{http.MethodGet, mustCompile(`/v1/ping`), (*Service).handlePing},
		{http.MethodGet, mustCompile(`/v1/users/authenticate`), (*Service).handleUsersOK},
		{http.MethodGet, mustCompile(`/v1/users/check_credentials`), (*Service).handleUsersOK},
		{http.MethodGet, mustCompile(`/v1/conans/search`), (*Service).handleRecipeSearch},
		{http.MethodGet, mustCompile(`/v1/conans/` + coordPattern + `/search`), (*Service).handleBinarySearch},
		{http.MethodGet, mustCompile(`/v1/conans/` + coordPattern + `/download_urls`), (*Service).handleRecipeDownloadURLs},
		{http.MethodPut, mustCompile(`/v1/conans/` + coordPattern + `/upload_urls`), (*Service).handleUploadURLs},
		{http.MethodGet, mustCompile(`/v1/conans/` + coordPattern + `/digest`), (*Service).handleRecipeDigest},
		{http.MethodGet, mustCompile(`/v1/conans/` + coordPattern + `/packages/` + hashPattern + `/download_urls`), (*Service).handleBinaryDownloadURLs},
		{http.MethodGet, mustCompile(`/v1/conans/` + coordPattern + `/packages/` + hashPattern + `/conaninfo`), (*Service).handleConanInfo},
		{http.MethodGet, mustCompile(`/v1/conans/` + coordPattern + `/packages/` + hashPattern), (*Service).handleBinaryDigest},
		{http.MethodDelete, mustCompile(`/v1/conans/` + coordPattern + `/packages/` + hashPattern), (*Service).handleDeleteBinary},
		{http.MethodDelete, mustCompile(`/v1/conans/` + coordPattern), (*Service).handleDeleteRecipe},

		{http.MethodGet, mustCompile(`/v2/conans/` + coordPattern + `/latest`), (*Service).handleV2RecipeLatest},
		{http.MethodGet, mustCompile(`/v2/conans/` + coordPattern + `/revisions/(\d+)/files/(.+)`), (*Service).handleV2RecipeFile},
		{http.MethodGet, mustCompile(`/v2/conans/` + coordPattern + `/revisions/(\d+)/files`), (*Service).handleV2RecipeFiles},
		{http.MethodGet, mustCompile(`/v2/conans/` + coordPattern + `/packages/` + hashPattern + `/latest`), (*Service).handleV2BinaryLatest},
		{http.MethodGet, mustCompile(`/v2/conans/` + coordPattern + `/packages/` + hashPattern + `/revisions/(\d+)/files/(.+)`), (*Service).handleV2BinaryFile},
		{http.MethodGet, mustCompile(`/v2/conans/` + coordPattern + `/packages/` + hashPattern + `/revisions/(\d+)/files`), (*Service).handleV2BinaryFiles},
	}
}
