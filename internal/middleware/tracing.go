package middleware

import (
	"errors"
	"strings"

	"thoughtforum/internal/models"
	"thoughtforum/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// forumResources are the /api segments reported as forum.resource.
var forumResources = map[string]struct{}{
	"auth": {}, "questions": {}, "answers": {}, "users": {}, "categories": {}, "ws": {},
}

// untraced reports paths that only serve probes, scrapes and docs.
func untraced(path string) bool {
	return path == "/metrics" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/swagger")
}

// forumResource returns the resource segment of /api/<resource>/..., or "".
func forumResource(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return ""
	}
	segment, _, _ := strings.Cut(rest, "/")
	if _, ok := forumResources[segment]; !ok {
		return ""
	}
	return segment
}

// TracingMiddleware starts a server span per API request. The span is renamed
// to the matched route pattern once routing is done so ids stay out of span names.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if untraced(path) {
			return c.Next()
		}

		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Method()),
			attribute.String("http.path", path),
			attribute.String("http.ip", c.IP()),
			attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
		}
		if resource := forumResource(path); resource != "" {
			attrs = append(attrs, attribute.String("forum.resource", resource))
		}
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			attrs = append(attrs, attribute.String("request.id", rid))
		}

		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		c.SetUserContext(ctx)

		err := c.Next()

		if route := c.Route(); route != nil && route.Path != "" && route.Path != "/" {
			span.SetName(c.Method() + " " + route.Path)
		}

		status := c.Response().StatusCode()
		if err != nil {
			// The error handler has not written the response yet.
			status = errorStatus(err)
			span.RecordError(err)
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, "server error")
		}

		if userID, ok := UserID(c); ok {
			span.SetAttributes(attribute.Int64("user.id", int64(userID)))
		}

		return err
	}
}

func errorStatus(err error) int {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
