package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quadrasoft/fiscal/internal/clock"
	"github.com/quadrasoft/fiscal/internal/config"
	documentdomain "github.com/quadrasoft/fiscal/internal/document/domain"
	documentservice "github.com/quadrasoft/fiscal/internal/document/service"
	"github.com/quadrasoft/fiscal/internal/emission/domain"
	"github.com/quadrasoft/fiscal/internal/observability/metrics"
	orderdomain "github.com/quadrasoft/fiscal/internal/order/domain"
	taxdomain "github.com/quadrasoft/fiscal/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Orders  orderdomain.Service
	Tax     taxdomain.Resolver
	Clock   clock.Clock
	Node    *snowflake.Node
	Metrics *metrics.Metrics
}

type Service struct {
	cfg     config.Config
	log     *zap.Logger
	orders  orderdomain.Service
	tax     taxdomain.Resolver
	clock   clock.Clock
	node    *snowflake.Node
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		cfg:     p.Cfg,
		log:     p.Log.Named("emission.service"),
		orders:  p.Orders,
		tax:     p.Tax,
		clock:   p.Clock,
		node:    p.Node,
		metrics: p.Metrics,
	}
}

// Emit resolves the order aggregate, classifies each line, and walks the
// assembly stages in order. The result is fully deterministic for a fixed
// clock and input set.
func (s *Service) Emit(ctx context.Context, req domain.EmitRequest) (*domain.EmitResult, error) {
	start := s.clock.Now()
	emissionID := s.node.Generate().String()

	if !req.Model.Valid() {
		s.metrics.EmissionFailures.WithLabelValues("invalid_model").Inc()
		return nil, documentdomain.ErrInvalidModel
	}

	agg, err := s.orders.Resolve(ctx, orderdomain.ResolveRequest{
		OrderID:      req.OrderID,
		MerchantCode: req.MerchantCode,
		Override:     req.Override,
	})
	if err != nil {
		s.metrics.EmissionFailures.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	if agg.FallbackSchema {
		s.metrics.SchemaFallbacks.Inc()
	}

	interstate := agg.Customer != nil &&
		agg.Customer.UF != "" &&
		agg.Customer.UF != agg.Merchant.UF

	fields := make([]taxdomain.Fields, len(agg.Items))
	var incomplete []string
	for i, item := range agg.Items {
		fields[i] = s.tax.Resolve(item.ProductID, item.Profile, taxdomain.ResolveOptions{
			Inbound:    req.Inbound,
			Interstate: interstate,
		})
		if fields[i].Incomplete {
			incomplete = append(incomplete, item.ProductID)
			s.metrics.IncompleteProfiles.Inc()
		}
	}

	totals := documentservice.ComputeTotals(agg.Header, agg.Items, s.cfg.Policy)
	if err := documentservice.CheckPayments(agg.Payments, totals.Net, s.cfg.Policy); err != nil {
		s.metrics.EmissionFailures.WithLabelValues("payment_sum_mismatch").Inc()
		return nil, err
	}

	issuedAt := start
	if req.IssuedAt != nil {
		issuedAt = *req.IssuedAt
	}

	xml, doc, err := s.assemble(agg, fields, totals, req, issuedAt)
	if err != nil {
		s.metrics.EmissionFailures.WithLabelValues("assembly").Inc()
		return nil, err
	}

	s.metrics.DocumentsEmitted.WithLabelValues(string(req.Model)).Inc()
	s.metrics.EmissionDuration.Observe(s.clock.Now().Sub(start).Seconds())

	s.log.Info("document emitted",
		zap.String("emission_id", emissionID),
		zap.String("order_id", agg.Header.ID),
		zap.String("model", string(req.Model)),
		zap.String("key", doc.Key),
		zap.Float64("net", totals.Net),
		zap.Int("incomplete_items", len(incomplete)),
	)

	return &domain.EmitResult{
		EmissionID:      emissionID,
		XML:             xml,
		Key:             doc.Key,
		Model:           req.Model,
		Number:          doc.Header.Number,
		Totals:          totals,
		IncompleteItems: incomplete,
	}, nil
}

func (s *Service) assemble(
	agg *orderdomain.Aggregate,
	fields []taxdomain.Fields,
	totals documentdomain.Totals,
	req domain.EmitRequest,
	issuedAt time.Time,
) (string, documentdomain.Document, error) {
	env := req.Environment
	if env == 0 {
		env = documentdomain.EnvTest
		if s.cfg.IsProduction() {
			env = documentdomain.EnvProduction
		}
	}
	series := req.Series
	if series == "" && agg.Merchant.Series == "" {
		series = s.cfg.DefaultSeries
	}
	customerUF := ""
	if agg.Customer != nil {
		customerUF = agg.Customer.UF
	}
	number := req.Number
	if number == "" {
		number = agg.Header.Number
	}

	builder := documentservice.NewBuilder()
	if err := builder.BuildHeader(documentservice.HeaderInput{
		Model:       req.Model,
		Merchant:    agg.Merchant,
		CustomerUF:  customerUF,
		OrderRef:    agg.Header.ID,
		Number:      number,
		Series:      series,
		NatOp:       req.NatOp,
		Environment: env,
		Finality:    req.Finality,
		Destination: req.Destination,
		Inbound:     req.Inbound,
		IssuedAt:    issuedAt,
		AppVersion:  s.cfg.AppVersion,
	}); err != nil {
		return "", documentdomain.Document{}, err
	}
	if err := builder.BuildParties(agg.Merchant, agg.Customer); err != nil {
		return "", documentdomain.Document{}, err
	}
	if err := builder.BuildItems(agg.Items, fields); err != nil {
		return "", documentdomain.Document{}, err
	}
	if err := builder.BuildTotals(totals); err != nil {
		return "", documentdomain.Document{}, err
	}
	if err := builder.BuildPayments(agg.Payments); err != nil {
		return "", documentdomain.Document{}, err
	}
	xml, err := builder.Serialize()
	if err != nil {
		return "", documentdomain.Document{}, err
	}
	return xml, builder.Document(), nil
}
func failureReason(err error) string {
	switch {
	case errors.Is(err, orderdomain.ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, orderdomain.ErrMerchantNotFound):
		return "merchant_not_found"
	case errors.Is(err, orderdomain.ErrInvalidMerchant),
		errors.Is(err, orderdomain.ErrInvalidOrderID),
		errors.Is(err, orderdomain.ErrEmptyOverride):
		return "validation"
	case errors.Is(err, orderdomain.ErrUpstream):
		return "upstream"
	default:
		return "internal"
	}
}
