package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	rh "github.com/coreybb/dailybrief/route-handlers"
	"github.com/coreybb/dailybrief/webutil"
)

const (
	apiBasePath          = "/api"
	processPath          = "/process"
	sourcesPath          = "/sources"
	testDigestPath       = "/test-digest/{email}"
	deliveryAttemptsPath = "/delivery-attempts/{email}"
	requestTimeout       = 60 * time.Second
)

func SetupRoutes(
	processHandler *rh.ProcessHandler,
	digestHandler *rh.DigestHandler,
	sourceHandler *rh.SourceHandler,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(SetHeader(webutil.HeaderContentType, webutil.ContentTypeJSONUTF8))

	r.Route(apiBasePath, func(r chi.Router) {
		r.Post(processPath, webutil.MakeHandler(processHandler.HandleProcess))
		r.Get(sourcesPath, webutil.MakeHandler(sourceHandler.HandleGetSources))
		r.Get(testDigestPath, webutil.MakeHandler(digestHandler.HandleTestDigest))
		r.Get(deliveryAttemptsPath, webutil.MakeHandler(digestHandler.HandleGetDeliveryAttempts))
	})

	// Health check endpoint
	r.Get("/healthz", handleHealthCheck)

	return r
}

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// SetHeader is a middleware to set a response header.
func SetHeader(key, value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(key, value)
			next.ServeHTTP(w, r)
		})
	}
}
