package edge

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dunamismax/pixeledge/internal/storage"
	"github.com/dunamismax/pixeledge/internal/transform"
)

const eligibleStatus = "200"

// ObjectFetcher retrieves the origin object a record points at.
type ObjectFetcher interface {
	FetchObject(ctx context.Context, bucket, region, key string) (storage.Object, error)
}

// Executor applies a transform plan and returns the base64-encoded body. ok is
// false when the result exceeds the response ceiling.
type Executor interface {
	Apply(ctx context.Context, input []byte, plan transform.Plan) (string, bool, error)
}

// Handler is the origin-response pipeline: eligibility checks, fetch, plan
// resolution, transform, response commit.
type Handler struct {
	logger   *zap.SugaredLogger
	fetcher  ObjectFetcher
	executor Executor
	detector transform.AnimationDetector
	tracer   trace.Tracer
}

func NewHandler(logger *zap.SugaredLogger, fetcher ObjectFetcher, executor Executor, detector transform.AnimationDetector) *Handler {
	return &Handler{
		logger:   logger,
		fetcher:  fetcher,
		executor: executor,
		detector: detector,
	}
}

func (h *Handler) WithTracer(tracer trace.Tracer) *Handler {
	h.tracer = tracer
	return h
}

// Handle is the outermost pipeline boundary. Any collaborator failure is
// logged exactly once and the invocation produces no response at all; the
// host then falls back to forwarding the origin response itself. Ineligible
// requests pass the original response through unchanged.
func (h *Handler) Handle(ctx context.Context, event Event) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorw("image transform aborted", "panic", r)
			resp, err = nil, nil
		}
	}()

	resp, procErr := h.process(ctx, event)
	if procErr != nil {
		h.logger.Errorw("image transform aborted", "error", procErr)
		return nil, nil
	}
	return resp, nil
}

func (h *Handler) process(ctx context.Context, event Event) (*Response, error) {
	if len(event.Records) != 1 {
		return nil, fmt.Errorf("expected exactly one record, got %d", len(event.Records))
	}

	record := event.Records[0].CF
	resp := record.Response

	if resp.Status != eligibleStatus {
		return &resp, nil
	}

	loc, ok := LocationFromOrigin(record.Request.Origin)
	if !ok {
		return &resp, nil
	}

	key, err := ObjectKeyFromURI(record.Request.URI)
	if err != nil {
		return nil, err
	}

	obj, err := h.fetchObject(ctx, loc, key)
	if err != nil {
		return nil, fmt.Errorf("fetch s3://%s/%s: %w", loc.Bucket, key, err)
	}

	if !eligibleContentType(obj.ContentType) {
		return &resp, nil
	}

	directives := transform.ParseDirectives(record.Request.QueryString)

	if obj.ContentType == transform.MIMEGIF {
		animated, err := h.detector.Animated(obj.Body)
		if err != nil {
			return nil, fmt.Errorf("detect animation: %w", err)
		}
		// Animated GIFs survive only as the untouched original; so do static
		// GIFs whose caller explicitly opted out.
		if animated || directives.Format == transform.FormatOriginal {
			return &resp, nil
		}
	}

	accept, _ := record.Request.Headers.First("accept")
	plan := transform.Resolve(obj.ContentType, directives, accept)
	if plan.IsNoop() {
		return &resp, nil
	}

	body, fits, err := h.applyPlan(ctx, obj.Body, plan)
	if err != nil {
		return nil, err
	}
	if !fits {
		return &resp, nil
	}

	resp.Body = body
	resp.BodyEncoding = "base64"
	if plan.ContentType != "" {
		if resp.Headers == nil {
			resp.Headers = Headers{}
		}
		resp.Headers.Set("Content-Type", plan.ContentType)
	}
	return &resp, nil
}

func (h *Handler) fetchObject(ctx context.Context, loc StorageLocation, key string) (storage.Object, error) {
	if h.tracer != nil {
		var span trace.Span
		ctx, span = h.tracer.Start(ctx, "edge.fetch_object")
		span.SetAttributes(
			attribute.String("storage.bucket", loc.Bucket),
			attribute.String("storage.key", key),
		)
		defer span.End()
	}
	return h.fetcher.FetchObject(ctx, loc.Bucket, loc.Region, key)
}

func (h *Handler) applyPlan(ctx context.Context, input []byte, plan transform.Plan) (string, bool, error) {
	if h.tracer != nil {
		var span trace.Span
		ctx, span = h.tracer.Start(ctx, "edge.apply_plan")
		span.SetAttributes(attribute.String("transform.encode", string(plan.Encode)))
		defer span.End()
	}
	return h.executor.Apply(ctx, input, plan)
}

func eligibleContentType(contentType string) bool {
	switch contentType {
	case transform.MIMEGIF, transform.MIMEJPEG, transform.MIMEPNG:
		return true
	default:
		return false
	}
}
