package conanserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cs3conan/conan-server/pkg/auth"
	"github.com/cs3conan/conan-server/pkg/blobstore/memblob"
	"github.com/cs3conan/conan-server/pkg/conanpath"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := New(map[string]interface{}{}, memblob.NewStore(), auth.AllowAll{}, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func doRequest(s *Service, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Host = "localhost"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	s := newTestService(t)
	rec := doRequest(s, http.MethodGet, "/v1/ping", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "complex_search,revisions", rec.Header().Get("X-Conan-Server-Capabilities"))
}

func TestUploadThenDownloadURLs(t *testing.T) {
	s := newTestService(t)

	body := `{"conanfile.py":"","conanmanifest.txt":"","conan_export.tgz":""}`
	rec := doRequest(s, http.MethodPut, "/v1/conans/zmqpp/4.2.0/_/_/upload_urls", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var urls map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &urls))
	require.Contains(t, urls, "conanfile.py")
	assert.Equal(t, "http://localhost/zmqpp/4.2.0/_/_/0/export/conanfile.py?signature=0", urls["conanfile.py"])

	for f := range urls {
		putRec := doRequest(s, http.MethodPut, "/zmqpp/4.2.0/_/_/0/export/"+f, "contents of "+f)
		assert.Equal(t, http.StatusCreated, putRec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/v1/conans/zmqpp/4.2.0/_/_/download_urls", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var downloads map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &downloads))
	assert.Equal(t, "http://localhost/zmqpp/4.2.0/_/_/0/export/conanfile.py", downloads["conanfile.py"])
}

func TestUploadURLsRejectsExistingCoordinate(t *testing.T) {
	s := newTestService(t)
	require.NoError(t, s.store.Put(context.Background(), "zlib/1.2.11/_/_/0/export/conanfile.py", []byte("x")))

	rec := doRequest(s, http.MethodPut, "/v1/conans/zlib/1.2.11/_/_/upload_urls", `{"conanfile.py":""}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestRecipeSearch(t *testing.T) {
	s := newTestService(t)
	require.NoError(t, s.store.Put(context.Background(), "zlib/1.2.11/_/_/0/export/conanfile.py", []byte("x")))

	rec := doRequest(s, http.MethodGet, "/v1/conans/search?q=zlib", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []string `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"zlib/1.2.11"}, resp.Results)
}

func TestGenericGetNotFound(t *testing.T) {
	s := newTestService(t)
	rec := doRequest(s, http.MethodGet, "/anything/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestV2RecipeLatestNotFound(t *testing.T) {
	s := newTestService(t)
	rec := doRequest(s, http.MethodGet, "/v2/conans/zlib/1.2.11/_/_/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestV2RecipeLatestAndFiles(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	require.NoError(t, s.store.Put(ctx, "zlib/1.2.11/_/_/0/export/conanfile.py", []byte("x")))

	coord, err := conanpath.ParseCoordinate("zlib/1.2.11/_/_")
	require.NoError(t, err)
	require.NoError(t, s.revisionsAPI(coord).AddRecipeRevision(ctx, 0))

	rec := doRequest(s, http.MethodGet, "/v2/conans/zlib/1.2.11/_/_/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var latest struct {
		Revision string `json:"revision"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Equal(t, "0", latest.Revision)

	rec = doRequest(s, http.MethodGet, "/v2/conans/zlib/1.2.11/_/_/revisions/0/files", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "conanfile.py")
}

func TestV2BinaryLatest(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	const hash = "6af9cc7cb931c5ad942174fd7838eb655717c709"

	coord, err := conanpath.ParseCoordinate("zlib/1.2.11/_/_")
	require.NoError(t, err)
	for _, f := range conanpath.PkgSrcList {
		key, err := conanpath.RecipeKey(coord, 0, f)
		require.NoError(t, err)
		require.NoError(t, s.store.Put(ctx, key, []byte("x")))
	}
	for _, f := range conanpath.PkgBinList {
		key, err := conanpath.BinaryKey(coord, 0, hash, 0, f)
		require.NoError(t, err)
		require.NoError(t, s.store.Put(ctx, key, []byte("x")))
	}
	require.NoError(t, s.revisionsAPI(coord).FullIndexUpdate(ctx))

	rec := doRequest(s, http.MethodGet, "/v2/conans/zlib/1.2.11/_/_/packages/"+hash+"/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var latest struct {
		Revision string `json:"revision"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Equal(t, "0", latest.Revision)
}
