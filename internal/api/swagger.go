package api

import (
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// SwaggerUIHandler returns a handler for Swagger UI
func SwaggerUIHandler() http.HandlerFunc {
	return httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))
}

// OpenAPISpecHandler returns a handler that redirects to the swagger spec JSON
func OpenAPISpecHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/doc.json", http.StatusTemporaryRedirect)
	}
}

// MonitoringPath is where the task queue UI is mounted.
const MonitoringPath = "/admin/monitoring"

// MonitoringHandler serves the asynq task queue UI at MonitoringPath.
// The UI is read-only.
func MonitoringHandler(redisAddr string) *asynqmon.HTTPHandler {
	return asynqmon.New(asynqmon.Options{
		RootPath:     MonitoringPath,
		RedisConnOpt: asynq.RedisClientOpt{Addr: redisAddr},
		ReadOnly:     true,
	})
}
