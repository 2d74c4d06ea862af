package middleware

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gofiber/fiber/v3"
)

// MetricsMiddleware counts requests and latency per matched route, so ids in
// the URL do not create new series.
func MetricsMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		start := time.Now()
		defer func() {
			path := ctx.Route().Path
			if path == "" {
				path = "unmatched"
			}
			labels := fmt.Sprintf(`path=%q,method=%q,status="%d"`, path, ctx.Method(), ctx.Response().StatusCode())
			metrics.GetOrCreateCounter(`http_requests_total{` + labels + `}`).Inc()
			metrics.GetOrCreateHistogram(`http_requests_latency{` + labels + `}`).UpdateDuration(start)
		}()
		return ctx.Next()
	}
}
