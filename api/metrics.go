package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"promptly/domain"
)

const (
	observabilityEvent = "observability.event"
	eventDomain        = "promptly.api"
	tracerName         = "promptly/api"
)

// requestMetrics collects timings for one request and emits them as a
// structured log entry and an OpenTelemetry span.
type requestMetrics struct {
	logger *log.Logger
	span   trace.Span
	route  string
	event  string
	start  time.Time

	loadDuration     time.Duration
	renderDuration   time.Duration
	searchProvided   bool
	categorySelected bool
	promptsTotal     int
	promptsReturned  int
	errorStage       string
	errorKind        domain.ErrorKind
	viewed           bool
	copyOutcome      string
	duplicate        bool
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, route, event string) (*requestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, event,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("http.route", route)),
	)
	return &requestMetrics{
		logger: logger,
		span:   span,
		route:  route,
		event:  event,
		start:  time.Now(),
	}, spanCtx
}

func (m *requestMetrics) ObserveLoad(d time.Duration) {
	if d <= 0 {
		return
	}
	m.loadDuration = d
}

func (m *requestMetrics) ObserveRender(d time.Duration) {
	if d <= 0 {
		return
	}
	m.renderDuration = d
}

func (m *requestMetrics) SetQuery(searchTerm, category string) {
	m.searchProvided = searchTerm != ""
	m.categorySelected = category != "" && category != domain.AllCategories
}

func (m *requestMetrics) SetPrompts(total, returned int) {
	if total < 0 {
		total = 0
	}
	if returned < 0 {
		returned = 0
	}
	m.promptsTotal = total
	m.promptsReturned = returned
	m.viewed = true
}

func (m *requestMetrics) SetCopyOutcome(outcome string, duplicate bool) {
	m.copyOutcome = outcome
	m.duplicate = duplicate
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *requestMetrics) SetErrorKind(kind domain.ErrorKind) {
	m.errorKind = kind
}

// Log finishes the span and writes the observability event.
func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.route", m.route),
		attribute.Int("http.status_code", status),
		attribute.Float64("promptly.total_ms", durationToMillis(time.Since(m.start))),
	}
	if m.viewed {
		attrs = append(attrs,
			attribute.Bool("promptly.search_provided", m.searchProvided),
			attribute.Bool("promptly.category_selected", m.categorySelected),
			attribute.Int("promptly.prompts_total", m.promptsTotal),
			attribute.Int("promptly.prompts_returned", m.promptsReturned),
		)
	}
	if m.copyOutcome != "" {
		attrs = append(attrs,
			attribute.String("promptly.copy_outcome", m.copyOutcome),
			attribute.Bool("promptly.copy_duplicate", m.duplicate),
		)
	}
	if m.loadDuration > 0 {
		attrs = append(attrs, attribute.Float64("promptly.load_ms", durationToMillis(m.loadDuration)))
	}
	if m.renderDuration > 0 {
		attrs = append(attrs, attribute.Float64("promptly.render_ms", durationToMillis(m.renderDuration)))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("promptly.error_stage", m.errorStage))
	}
	if m.errorKind != "" {
		attrs = append(attrs, attribute.String("promptly.error_kind", string(m.errorKind)))
	}

	severityText, severityNumber := severityForStatus(status, err)
	eventAttrs := append([]attribute.KeyValue{
		attribute.String("event.name", m.event),
		attribute.String("event.domain", eventDomain),
		attribute.String("severity_text", severityText),
		attribute.Int("severity_number", severityNumber),
	}, attrs...)
	if err != nil {
		eventAttrs = append(eventAttrs, attribute.String("error.message", err.Error()))
	}

	m.span.SetAttributes(attrs...)
	m.span.AddEvent(observabilityEvent, trace.WithAttributes(eventAttrs...))
	switch {
	case err != nil:
		m.span.SetStatus(codes.Error, err.Error())
	case status >= http.StatusInternalServerError:
		m.span.SetStatus(codes.Error, http.StatusText(status))
	default:
		m.span.SetStatus(codes.Ok, "")
	}
	spanCtx := m.span.SpanContext()
	m.span.End()

	if m.logger == nil {
		return
	}
	attrMap := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		attrMap[string(kv.Key)] = kv.Value.AsInterface()
	}
	fields := log.Fields{
		"event.name":      m.event,
		"event.domain":    eventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes":      attrMap,
	}
	if spanCtx.HasTraceID() {
		fields["trace_id"] = spanCtx.TraceID().String()
	}
	if spanCtx.HasSpanID() {
		fields["span_id"] = spanCtx.SpanID().String()
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Log(levelForSeverity(severityText), observabilityEvent)
}

func severityForStatus(status int, err error) (string, int) {
	switch {
	case status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	case err != nil:
		return "ERROR", 17
	default:
		return "INFO", 9
	}
}

func levelForSeverity(text string) log.Level {
	switch text {
	case "ERROR":
		return log.ErrorLevel
	case "WARN":
		return log.WarnLevel
	default:
		return log.InfoLevel
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
