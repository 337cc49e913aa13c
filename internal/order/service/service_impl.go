package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/quadrasoft/fiscal/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("order.service"),
		repo: p.Repo,
	}
}

// Resolve loads the transaction aggregate, trying the tab schema first and
// falling back to the sale schema. Once the header and merchant code are
// known, the remaining fetches are independent and run concurrently. Any
// fetch failure aborts the whole resolution; no partial aggregate is
// returned.
func (s *Service) Resolve(ctx context.Context, req domain.ResolveRequest) (*domain.Aggregate, error) {
	if req.Override != nil {
		return s.resolveOverride(req.Override)
	}

	merchantCode := strings.TrimSpace(req.MerchantCode)
	if merchantCode == "" {
		return nil, domain.ErrInvalidMerchant
	}
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return nil, domain.ErrInvalidOrderID
	}

	header, fromSale, err := s.resolveHeader(ctx, merchantCode, orderID)
	if err != nil {
		return nil, err
	}

	agg := &domain.Aggregate{Header: *header, FallbackSchema: fromSale}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var items []domain.LineItem
		var err error
		if fromSale {
			items, err = s.repo.FindSaleItems(gctx, s.db, merchantCode, header.ID)
		} else {
			items, err = s.repo.FindTabItems(gctx, s.db, merchantCode, header.ID)
		}
		if err != nil {
			return fmt.Errorf("%w: load items: %v", domain.ErrUpstream, err)
		}
		agg.Items = items
		return nil
	})

	g.Go(func() error {
		payments, err := s.repo.FindPayments(gctx, s.db, merchantCode, header.ID)
		if err != nil {
			return fmt.Errorf("%w: load payments: %v", domain.ErrUpstream, err)
		}
		agg.Payments = payments
		return nil
	})

	g.Go(func() error {
		merchant, err := s.repo.FindMerchant(gctx, s.db, merchantCode)
		if err != nil {
			return fmt.Errorf("%w: load merchant: %v", domain.ErrUpstream, err)
		}
		if merchant == nil {
			return domain.ErrMerchantNotFound
		}
		agg.Merchant = *merchant
		return nil
	})

	if header.CustomerID != "" {
		customerID := header.CustomerID
		g.Go(func() error {
			customer, err := s.repo.FindCustomer(gctx, s.db, merchantCode, customerID)
			if err != nil {
				return fmt.Errorf("%w: load customer: %v", domain.ErrUpstream, err)
			}
			// Absent customer rows degrade to an anonymous document.
			agg.Customer = customer
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.Debug("order resolved",
		zap.String("order_id", header.ID),
		zap.Bool("sale_schema", fromSale),
		zap.Int("items", len(agg.Items)),
		zap.Int("payments", len(agg.Payments)),
	)
	return agg, nil
}

func (s *Service) resolveHeader(ctx context.Context, merchantCode, orderID string) (*domain.Order, bool, error) {
	header, err := s.repo.FindTabOrder(ctx, s.db, merchantCode, orderID)
	if err == nil && header != nil {
		return header, false, nil
	}
	if err != nil {
		// A failing primary read still allows the secondary schema to
		// answer; only report it if that one fails too.
		s.log.Warn("tab schema read failed, trying sale schema",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}

	header, saleErr := s.repo.FindSaleOrder(ctx, s.db, merchantCode, orderID)
	if saleErr != nil {
		if err != nil {
			return nil, false, fmt.Errorf("%w: load header: %v", domain.ErrUpstream, saleErr)
		}
		return nil, false, fmt.Errorf("%w: load header: %v", domain.ErrUpstream, saleErr)
	}
	if header == nil {
		return nil, false, domain.ErrOrderNotFound
	}
	return header, true, nil
}

func (s *Service) resolveOverride(override *domain.Aggregate) (*domain.Aggregate, error) {
	if override.Header.ID == "" && len(override.Items) == 0 {
		return nil, domain.ErrEmptyOverride
	}
	if override.Merchant.CNPJ == "" {
		return nil, domain.ErrInvalidMerchant
	}
	copied := *override
	return &copied, nil
}
