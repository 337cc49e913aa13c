package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository reads the two historical order schemas plus the shared
// payment/party tables. All reads are scoped by merchant code.
type Repository interface {
	// Tab schema (primary): comandas / comanda_itens.
	FindTabOrder(ctx context.Context, db *gorm.DB, merchantCode, orderID string) (*Order, error)
	FindTabItems(ctx context.Context, db *gorm.DB, merchantCode, orderID string) ([]LineItem, error)

	// Sale schema (secondary): vendas / itens_venda.
	FindSaleOrder(ctx context.Context, db *gorm.DB, merchantCode, orderID string) (*Order, error)
	FindSaleItems(ctx context.Context, db *gorm.DB, merchantCode, orderID string) ([]LineItem, error)

	FindPayments(ctx context.Context, db *gorm.DB, merchantCode, orderID string) ([]Payment, error)
	FindMerchant(ctx context.Context, db *gorm.DB, merchantCode string) (*Merchant, error)
	FindCustomer(ctx context.Context, db *gorm.DB, merchantCode, customerID string) (*Customer, error)
}
