// Router: method+path dispatch over the compiled pattern table, wrapping
// each handler with the auth capability check, with ambient
// logging/recovery/CORS middleware around the whole mux.
package conanserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/cs3conan/conan-server/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

func (s *Service) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)
	corsHandler := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	})
	r.Use(corsHandler.Handler)
	r.Handle("/*", http.HandlerFunc(s.dispatch))
	return r
}

// loggingMiddleware attaches a request-scoped logger to the context and
// logs method/path/status/latency, grounded on reva's
// pkg/appctx.GetLogger(ctx) convention of carrying a child logger instead
// of a package-level global.
func (s *Service) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := s.log.With().Str("method", r.Method).Str("path", r.URL.Path).Logger()
		ctx := withLogger(r.Context(), log)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		log.Info().
			Int("status", ww.Status()).
			Dur("latency", time.Since(start)).
			Msg("handled request")
	})
}

func actionFor(method string) auth.Action {
	switch method {
	case http.MethodGet, http.MethodHead:
		return auth.Read
	default:
		return auth.Write
	}
}

// dispatch matches the request against the route table; the first
// matching (method, pattern) pair wins. Unmatched requests fall through
// to the generic GET-file/PUT-file handler.
func (s *Service) dispatch(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, s.conf.Prefix)

	switch s.checker.Check(r, actionFor(r.Method)) {
	case auth.NeedAuth:
		w.WriteHeader(http.StatusUnauthorized)
		return
	case auth.Deny:
		w.WriteHeader(http.StatusForbidden)
		return
	}

	for _, rt := range s.routes {
		if rt.method != r.Method {
			continue
		}
		if m := rt.pattern.FindStringSubmatch(path); m != nil {
			rt.handler(s, w, r, m)
			return
		}
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGenericGet(w, r, strings.TrimPrefix(path, "/"))
	case http.MethodPut:
		s.handleGenericPut(w, r, strings.TrimPrefix(path, "/"))
	default:
		writeNotFound(w, r)
	}
}
