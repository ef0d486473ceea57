package tracing

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/log"

	"github.com/customeros/dmarcstore/internal/logger"
)

const (
	SpanTagComponent = "component"
	SpanTagEntityId  = "entity-id"
	SpanTagUserId    = "user-id"
)

const (
	SpanTagComponentPostgresRepository = "postgresRepository"
	SpanTagComponentCronJob            = "cronJob"
	SpanTagComponentMigration          = "migration"
)

func StartTracerSpan(ctx context.Context, operationName string) (opentracing.Span, context.Context) {
	serverSpan := opentracing.GlobalTracer().StartSpan(operationName)
	return serverSpan, opentracing.ContextWithSpan(ctx, serverSpan)
}

func TraceErr(span opentracing.Span, err error, fields ...log.Field) {
	if span == nil || err == nil {
		return
	}
	ext.LogError(span, err, fields...)
}

func LogObjectAsJson(span opentracing.Span, name string, object any) {
	if object == nil {
		span.LogFields(log.String(name, "nil"))
	}
	jsonObject, err := json.Marshal(object)
	if err == nil {
		span.LogFields(log.String(name, string(jsonObject)))
	} else {
		span.LogFields(log.Object(name, object))
	}
}

func TagComponentPostgresRepository(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentPostgresRepository)
}

func TagComponentCronJob(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentCronJob)
}

func TagComponentMigration(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentMigration)
}

func TagEntity(span opentracing.Span, entityId string) {
	if entityId != "" {
		span.SetTag(SpanTagEntityId, entityId)
	}
}

func TagUser(span opentracing.Span, userId int64) {
	if userId != 0 {
		span.SetTag(SpanTagUserId, userId)
	}
}

// RecoverAndLogToJaeger turns a panic in a background job into a traced,
// logged error instead of a crash.
func RecoverAndLogToJaeger(appLogger logger.Logger) {
	if r := recover(); r != nil {
		err := fmt.Errorf("panic: %v", r)
		span := opentracing.GlobalTracer().StartSpan("panic")
		defer span.Finish()
		TraceErr(span, err, log.String("stacktrace", string(debug.Stack())))
		appLogger.Errorf("Recovered from panic: %v", r)
	}
}
