package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/quadrasoft/fiscal/internal/order/domain"
	"github.com/quadrasoft/fiscal/internal/order/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var schemaStatements = []string{
	`CREATE TABLE comandas (
		id TEXT, codigo_empresa TEXT, numero TEXT, cliente_id TEXT,
		desconto_tipo TEXT, desconto_valor REAL, fechado_em DATETIME
	)`,
	`CREATE TABLE comanda_itens (
		comanda_id TEXT, produto_id TEXT, descricao TEXT,
		quantidade REAL, preco_unitario REAL, desconto REAL
	)`,
	`CREATE TABLE vendas (
		id TEXT, codigo_empresa TEXT, numero TEXT, cliente_id TEXT, desconto REAL
	)`,
	`CREATE TABLE itens_venda (
		comanda_id TEXT, codigo_empresa TEXT, produto_id TEXT, descricao TEXT,
		quantidade REAL, preco_unitario REAL, desconto REAL, preco_total REAL
	)`,
	`CREATE TABLE produtos (
		id TEXT, nome TEXT, codigo TEXT, ncm TEXT, cest TEXT,
		"cfopInterno" TEXT, "cfopExterno" TEXT,
		"cstIcmsInterno" TEXT, "csosnInterno" TEXT,
		"aliqIcmsInterno" REAL,
		"cstPisSaida" TEXT, "aliqPisPercent" REAL, "aliqCofinsPercent" REAL,
		"cstIpi" TEXT, "aliqIpiPercent" REAL
	)`,
	`CREATE TABLE pagamentos (
		comanda_id TEXT, codigo_empresa TEXT, valor REAL, status TEXT, finalizadora_id TEXT
	)`,
	`CREATE TABLE finalizadoras (id TEXT, codigo_sefaz TEXT, nome TEXT)`,
	`CREATE TABLE empresas (
		codigo_empresa TEXT, cnpj TEXT, razao_social TEXT, nome_fantasia TEXT,
		logradouro TEXT, numero TEXT, bairro TEXT, municipio TEXT,
		codigo_municipio TEXT, uf TEXT, codigo_uf TEXT, cep TEXT, telefone TEXT,
		inscricao_estadual TEXT, regime_tributario TEXT, nfce_serie TEXT
	)`,
	`CREATE TABLE clientes (
		id TEXT, codigo_empresa TEXT, nome TEXT, tipo_pessoa TEXT, cpf_cnpj TEXT,
		inscricao_estadual TEXT, logradouro TEXT, numero TEXT, bairro TEXT,
		municipio TEXT, codigo_municipio TEXT, uf TEXT, cep TEXT, email TEXT
	)`,
}

func openStore(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range schemaStatements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedMerchant(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO empresas VALUES ('001', '12345678000190', 'Padaria Central LTDA',
		 'Padaria Central', 'Rua das Flores', '100', 'Centro', 'Sao Paulo',
		 '3550308', 'SP', '35', '01310-100', '(11) 3333-4444', '123456789', '1', '2')`,
	).Error)
}

func seedProduct(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO produtos (id, nome, codigo, ncm, "cfopInterno", "csosnInterno", "cstPisSaida", "aliqPisPercent")
		 VALUES ('p1', 'Cafe Especial', 'P001', '09012100', '5102', '102', '01', 1.65)`,
	).Error)
}

func newTestService(db *gorm.DB) domain.Service {
	return New(Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
	})
}

func TestResolve_TabSchema(t *testing.T) {
	db := openStore(t)
	seedMerchant(t, db)
	seedProduct(t, db)
	require.NoError(t, db.Exec(
		`INSERT INTO comandas (id, codigo_empresa, numero, cliente_id, desconto_tipo, desconto_valor)
		 VALUES ('cmd-1', '001', '42', 'cli-1', 'percentual', 10)`,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO comanda_itens VALUES ('cmd-1', 'p1', 'Cafe', 2, 7.5, 0)`,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO finalizadoras VALUES ('f1', '01', 'Dinheiro')`,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO pagamentos VALUES ('cmd-1', '001', 13.5, 'Pago', 'f1')`,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO clientes (id, codigo_empresa, nome, tipo_pessoa, cpf_cnpj, uf)
		 VALUES ('cli-1', '001', 'Fulano', 'PF', '12345678909', 'SP')`,
	).Error)

	agg, err := newTestService(db).Resolve(context.Background(), domain.ResolveRequest{
		OrderID:      "cmd-1",
		MerchantCode: "001",
	})
	require.NoError(t, err)

	assert.Equal(t, "42", agg.Header.Number)
	assert.Equal(t, domain.DiscountPercentage, agg.Header.DiscountKind)
	assert.False(t, agg.FallbackSchema)

	require.Len(t, agg.Items, 1)
	assert.Equal(t, "P001", agg.Items[0].ProductCode)
	assert.InDelta(t, 15.0, agg.Items[0].Total, 1e-9)
	assert.Equal(t, "102", agg.Items[0].Profile["csosnInterno"])

	require.Len(t, agg.Payments, 1)
	assert.Equal(t, "01", agg.Payments[0].MethodCode)

	assert.Equal(t, "12345678000190", agg.Merchant.CNPJ)
	assert.Equal(t, "2", agg.Merchant.Series)

	require.NotNil(t, agg.Customer)
	assert.Equal(t, "Fulano", agg.Customer.Name)
}

func TestResolve_SaleSchemaFallback(t *testing.T) {
	db := openStore(t)
	seedMerchant(t, db)
	seedProduct(t, db)
	require.NoError(t, db.Exec(
		`INSERT INTO vendas VALUES ('sale-1', '001', '7', '', 5)`,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO itens_venda VALUES ('sale-1', '001', 'p1', '', 3, 10, 0, 28.5)`,
	).Error)

	agg, err := newTestService(db).Resolve(context.Background(), domain.ResolveRequest{
		OrderID:      "sale-1",
		MerchantCode: "001",
	})
	require.NoError(t, err)

	assert.True(t, agg.FallbackSchema)
	assert.InDelta(t, 5.0, agg.Header.Discount, 1e-9)
	require.Len(t, agg.Items, 1)
	// Stored line total wins over qty*unit.
	assert.InDelta(t, 28.5, agg.Items[0].Total, 1e-9)
	// Description falls back to the product name.
	assert.Equal(t, "Cafe Especial", agg.Items[0].Description)
	assert.Nil(t, agg.Customer)
}

func TestResolve_NotFound(t *testing.T) {
	db := openStore(t)
	seedMerchant(t, db)

	_, err := newTestService(db).Resolve(context.Background(), domain.ResolveRequest{
		OrderID:      "missing",
		MerchantCode: "001",
	})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestResolve_Validation(t *testing.T) {
	db := openStore(t)
	svc := newTestService(db)

	_, err := svc.Resolve(context.Background(), domain.ResolveRequest{OrderID: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidMerchant)

	_, err = svc.Resolve(context.Background(), domain.ResolveRequest{MerchantCode: "001"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrderID)
}

func TestResolve_MerchantMissing(t *testing.T) {
	db := openStore(t)
	require.NoError(t, db.Exec(
		`INSERT INTO comandas (id, codigo_empresa, numero) VALUES ('cmd-1', '001', '1')`,
	).Error)

	_, err := newTestService(db).Resolve(context.Background(), domain.ResolveRequest{
		OrderID:      "cmd-1",
		MerchantCode: "001",
	})
	assert.ErrorIs(t, err, domain.ErrMerchantNotFound)
}

func TestResolve_ExcludesCancelledPayments(t *testing.T) {
	db := openStore(t)
	seedMerchant(t, db)
	require.NoError(t, db.Exec(
		`INSERT INTO comandas (id, codigo_empresa, numero) VALUES ('cmd-1', '001', '1')`,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO pagamentos VALUES
		 ('cmd-1', '001', 10, 'Pago', ''),
		 ('cmd-1', '001', 20, 'Cancelado', ''),
		 ('cmd-1', '001', 30, 'Estornado', '')`,
	).Error)

	agg, err := newTestService(db).Resolve(context.Background(), domain.ResolveRequest{
		OrderID:      "cmd-1",
		MerchantCode: "001",
	})
	require.NoError(t, err)
	require.Len(t, agg.Payments, 1)
	assert.InDelta(t, 10.0, agg.Payments[0].Amount, 1e-9)
}

func TestResolve_Override(t *testing.T) {
	svc := newTestService(nil)

	override := &domain.Aggregate{
		Header:   domain.Order{ID: "ov-1"},
		Merchant: domain.Merchant{CNPJ: "12345678000190"},
	}
	agg, err := svc.Resolve(context.Background(), domain.ResolveRequest{Override: override})
	require.NoError(t, err)
	assert.Equal(t, "ov-1", agg.Header.ID)

	_, err = svc.Resolve(context.Background(), domain.ResolveRequest{
		Override: &domain.Aggregate{Header: domain.Order{ID: "ov-1"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMerchant)

	_, err = svc.Resolve(context.Background(), domain.ResolveRequest{
		Override: &domain.Aggregate{Merchant: domain.Merchant{CNPJ: "12345678000190"}},
	})
	assert.ErrorIs(t, err, domain.ErrEmptyOverride)
}
