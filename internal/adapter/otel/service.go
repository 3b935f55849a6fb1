package otel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/assetiq/internal/domain"
)

const instrumentationName = "github.com/neomorfeo/assetiq/internal/adapter/otel"

// TracingService wraps a domain.DecompositionService with OpenTelemetry
// tracing. Plan creation and execution also feed metric instruments.
type TracingService struct {
	next   domain.DecompositionService
	tracer trace.Tracer

	plans      metric.Int64Counter
	executions metric.Int64Counter
	items      metric.Int64Counter
	duration   metric.Float64Histogram
}

// Compile-time check: TracingService implements domain.DecompositionService.
var _ domain.DecompositionService = (*TracingService)(nil)

// NewTracingService creates a tracing decorator around the given service,
// using the global tracer and meter providers.
func NewTracingService(next domain.DecompositionService) (*TracingService, error) {
	meter := otel.Meter(instrumentationName)

	plans, err := meter.Int64Counter("assetiq.decomposition.plans",
		metric.WithDescription("Decomposition plans created"))
	if err != nil {
		return nil, fmt.Errorf("creating plans counter: %w", err)
	}
	executions, err := meter.Int64Counter("assetiq.decomposition.executions",
		metric.WithDescription("Decomposition executions by outcome"))
	if err != nil {
		return nil, fmt.Errorf("creating executions counter: %w", err)
	}
	items, err := meter.Int64Counter("assetiq.decomposition.items",
		metric.WithDescription("Extracted items consolidated, by match tier"))
	if err != nil {
		return nil, fmt.Errorf("creating items counter: %w", err)
	}
	duration, err := meter.Float64Histogram("assetiq.decomposition.execution.duration",
		metric.WithDescription("Time spent executing a decomposition"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &TracingService{
		next:       next,
		tracer:     otel.Tracer(instrumentationName),
		plans:      plans,
		executions: executions,
		items:      items,
		duration:   duration,
	}, nil
}

func (s *TracingService) start(ctx context.Context, name string, p domain.Principal, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("principal.subject", p.Subject),
		attribute.String("principal.tenant_id", p.TenantID),
	)
	return s.tracer.Start(ctx, "DecompositionService."+name, trace.WithAttributes(attrs...))
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.kind", string(domain.KindOf(err))))
	}
	span.End()
}

func (s *TracingService) RegisterAsset(ctx context.Context, p domain.Principal, in domain.NewAssetInput) (domain.Asset, error) {
	ctx, span := s.start(ctx, "RegisterAsset", p, attribute.String("asset.code", in.Code))
	asset, err := s.next.RegisterAsset(ctx, p, in)
	if err == nil {
		span.SetAttributes(attribute.String("asset.id", asset.ID))
	}
	end(span, err)
	return asset, err
}

func (s *TracingService) GetAsset(ctx context.Context, p domain.Principal, id string) (domain.Asset, error) {
	ctx, span := s.start(ctx, "GetAsset", p, attribute.String("asset.id", id))
	asset, err := s.next.GetAsset(ctx, p, id)
	end(span, err)
	return asset, err
}

func (s *TracingService) ListCompatibleAssets(ctx context.Context, p domain.Principal, sourceAssetID string) ([]domain.Asset, error) {
	ctx, span := s.start(ctx, "ListCompatibleAssets", p, attribute.String("asset.id", sourceAssetID))
	assets, err := s.next.ListCompatibleAssets(ctx, p, sourceAssetID)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(assets)))
	}
	end(span, err)
	return assets, err
}

func (s *TracingService) ListComponents(ctx context.Context, p domain.Principal, assetID string) ([]domain.AssetComponent, error) {
	ctx, span := s.start(ctx, "ListComponents", p, attribute.String("asset.id", assetID))
	components, err := s.next.ListComponents(ctx, p, assetID)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(components)))
	}
	end(span, err)
	return components, err
}

func (s *TracingService) CreatePlan(ctx context.Context, p domain.Principal, in domain.CreatePlanInput) (domain.Plan, error) {
	ctx, span := s.start(ctx, "CreatePlan", p,
		attribute.String("asset.id", in.AssetID),
		attribute.Int("plan.items", len(in.Items)),
	)
	plan, err := s.next.CreatePlan(ctx, p, in)
	if err == nil {
		span.SetAttributes(
			attribute.String("request.id", plan.Request.ID),
			attribute.String("request.number", plan.Request.Number),
		)
		s.plans.Add(ctx, 1, metric.WithAttributes(attribute.String("tenant.id", plan.Request.TenantID)))
	}
	end(span, err)
	return plan, err
}

func (s *TracingService) ExecutePlan(ctx context.Context, p domain.Principal, requestID string) (domain.ExecutionResult, error) {
	ctx, span := s.start(ctx, "ExecutePlan", p, attribute.String("request.id", requestID))
	started := time.Now()

	result, err := s.next.ExecutePlan(ctx, p, requestID)

	outcome := "completed"
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	outcomeAttr := metric.WithAttributes(attribute.String("outcome", outcome))
	s.executions.Add(ctx, 1, outcomeAttr)
	s.duration.Record(ctx, time.Since(started).Seconds(), outcomeAttr)

	if err == nil {
		span.SetAttributes(
			attribute.String("request.number", result.Request.Number),
			attribute.String("asset.status", string(result.Asset.Status)),
			attribute.Int("result.items", len(result.Items)),
		)
		for _, item := range result.Items {
			s.items.Add(ctx, 1, metric.WithAttributes(attribute.String("match", string(item.Match))))
		}
	}
	end(span, err)
	return result, err
}

func (s *TracingService) GetPlan(ctx context.Context, p domain.Principal, requestID string) (domain.Plan, error) {
	ctx, span := s.start(ctx, "GetPlan", p, attribute.String("request.id", requestID))
	plan, err := s.next.GetPlan(ctx, p, requestID)
	end(span, err)
	return plan, err
}

func (s *TracingService) ListPlans(ctx context.Context, p domain.Principal, filter domain.RequestFilter) ([]domain.DecompositionRequest, error) {
	ctx, span := s.start(ctx, "ListPlans", p,
		attribute.Int("filter.limit", filter.Limit),
		attribute.Int("filter.offset", filter.Offset),
	)
	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}
	requests, err := s.next.ListPlans(ctx, p, filter)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(requests)))
	}
	end(span, err)
	return requests, err
}

func (s *TracingService) GetSparePart(ctx context.Context, p domain.Principal, id string) (domain.SparePart, error) {
	ctx, span := s.start(ctx, "GetSparePart", p, attribute.String("spare_part.id", id))
	part, err := s.next.GetSparePart(ctx, p, id)
	end(span, err)
	return part, err
}

func (s *TracingService) ListSpareParts(ctx context.Context, p domain.Principal, filter domain.SparePartFilter) ([]domain.SparePart, error) {
	ctx, span := s.start(ctx, "ListSpareParts", p,
		attribute.Int("filter.limit", filter.Limit),
		attribute.Int("filter.offset", filter.Offset),
	)
	parts, err := s.next.ListSpareParts(ctx, p, filter)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(parts)))
	}
	end(span, err)
	return parts, err
}
