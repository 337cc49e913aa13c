package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/quadrasoft/fiscal/internal/order/domain"
	pkgdb "github.com/quadrasoft/fiscal/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

type tabOrderRow struct {
	ID            string     `gorm:"column:id"`
	Numero        string     `gorm:"column:numero"`
	ClienteID     string     `gorm:"column:cliente_id"`
	DescontoTipo  string     `gorm:"column:desconto_tipo"`
	DescontoValor float64    `gorm:"column:desconto_valor"`
	FechadoEm     *time.Time `gorm:"column:fechado_em"`
}

func (r *repo) FindTabOrder(ctx context.Context, db *gorm.DB, merchantCode, orderID string) (*domain.Order, error) {
	var row tabOrderRow
	err := db.WithContext(ctx).Raw(
		`SELECT id, numero, cliente_id, desconto_tipo, desconto_valor, fechado_em
		 FROM comandas WHERE codigo_empresa = ? AND id = ?`,
		merchantCode,
		orderID,
	).First(&row).Error
	if pkgdb.IsNotFoundErr(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Order{
		ID:            row.ID,
		Number:        row.Numero,
		MerchantCode:  merchantCode,
		CustomerID:    row.ClienteID,
		ClosedAt:      row.FechadoEm,
		DiscountKind:  domain.DiscountKind(row.DescontoTipo),
		DiscountValue: row.DescontoValor,
	}, nil
}

type saleOrderRow struct {
	ID        string  `gorm:"column:id"`
	Numero    string  `gorm:"column:numero"`
	ClienteID string  `gorm:"column:cliente_id"`
	Desconto  float64 `gorm:"column:desconto"`
}

func (r *repo) FindSaleOrder(ctx context.Context, db *gorm.DB, merchantCode, orderID string) (*domain.Order, error) {
	var row saleOrderRow
	err := db.WithContext(ctx).Raw(
		`SELECT id, numero, cliente_id, desconto
		 FROM vendas WHERE codigo_empresa = ? AND id = ?`,
		merchantCode,
		orderID,
	).First(&row).Error
	if pkgdb.IsNotFoundErr(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Order{
		ID:           row.ID,
		Number:       row.Numero,
		MerchantCode: merchantCode,
		CustomerID:   row.ClienteID,
		Discount:     row.Desconto,
	}, nil
}

func (r *repo) FindTabItems(ctx context.Context, db *gorm.DB, merchantCode, orderID string) ([]domain.LineItem, error) {
	var rows []map[string]any
	err := db.WithContext(ctx).Raw(
		`SELECT produto_id, descricao, quantidade, preco_unitario, desconto
		 FROM comanda_itens WHERE comanda_id = ?`,
		orderID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return r.attachProfiles(ctx, db, rows, false)
}

func (r *repo) FindSaleItems(ctx context.Context, db *gorm.DB, merchantCode, orderID string) ([]domain.LineItem, error) {
	var rows []map[string]any
	err := db.WithContext(ctx).Raw(
		`SELECT produto_id, descricao, quantidade, preco_unitario, desconto, preco_total
		 FROM itens_venda WHERE comanda_id = ? AND codigo_empresa = ?`,
		orderID,
		merchantCode,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return r.attachProfiles(ctx, db, rows, true)
}

// attachProfiles loads the product rows for the given items and builds
// normalized line items carrying the raw product bag. Missing numeric
// fields default to zero (quantity to one) rather than failing.
func (r *repo) attachProfiles(ctx context.Context, db *gorm.DB, rows []map[string]any, hasStoredTotal bool) ([]domain.LineItem, error) {
	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		id := mapString(row, "produto_id")
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	profiles := make(map[string]domain.TaxProfile, len(ids))
	if len(ids) > 0 {
		var prods []map[string]any
		err := db.WithContext(ctx).Raw(
			`SELECT * FROM produtos WHERE id IN ?`, ids,
		).Scan(&prods).Error
		if err != nil {
			return nil, err
		}
		for _, p := range prods {
			profiles[mapString(p, "id")] = domain.TaxProfile(p)
		}
	}

	items := make([]domain.LineItem, 0, len(rows))
	for _, row := range rows {
		productID := mapString(row, "produto_id")
		profile := profiles[productID]

		qty := mapFloat(row, "quantidade")
		if qty == 0 {
			qty = 1
		}
		unit := mapFloat(row, "preco_unitario")
		disc := mapFloat(row, "desconto")

		total := qty*unit - disc
		if hasStoredTotal {
			if stored, ok := mapFloatOK(row, "preco_total"); ok && stored != 0 {
				total = stored
			}
		}

		desc := mapString(row, "descricao")
		if desc == "" {
			desc = mapString(profile, "nome")
		}

		items = append(items, domain.LineItem{
			ProductID:   productID,
			ProductCode: mapString(profile, "codigo"),
			Description: desc,
			Quantity:    qty,
			UnitPrice:   unit,
			Discount:    disc,
			Total:       total,
			Profile:     profile,
		})
	}
	return items, nil
}

type paymentRow struct {
	Valor       float64 `gorm:"column:valor"`
	Status      string  `gorm:"column:status"`
	CodigoSefaz string  `gorm:"column:codigo_sefaz"`
	Nome        string  `gorm:"column:nome"`
}

func (r *repo) FindPayments(ctx context.Context, db *gorm.DB, merchantCode, orderID string) ([]domain.Payment, error) {
	var rows []paymentRow
	err := db.WithContext(ctx).Raw(
		`SELECT p.valor, p.status, f.codigo_sefaz, f.nome
		 FROM pagamentos p
		 LEFT JOIN finalizadoras f ON f.id = p.finalizadora_id
		 WHERE p.comanda_id = ? AND p.codigo_empresa = ?
		   AND p.status NOT IN (?, ?)
		 ORDER BY p.valor DESC`,
		orderID,
		merchantCode,
		domain.PaymentStatusCancelled,
		domain.PaymentStatusReversed,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	payments := make([]domain.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, domain.Payment{
			Amount:      row.Valor,
			MethodLabel: row.Nome,
			MethodCode:  row.CodigoSefaz,
			Status:      row.Status,
		})
	}
	return payments, nil
}

type merchantRow struct {
	CNPJ              string `gorm:"column:cnpj"`
	RazaoSocial       string `gorm:"column:razao_social"`
	NomeFantasia      string `gorm:"column:nome_fantasia"`
	Logradouro        string `gorm:"column:logradouro"`
	Numero            string `gorm:"column:numero"`
	Bairro            string `gorm:"column:bairro"`
	Municipio         string `gorm:"column:municipio"`
	CodigoMunicipio   string `gorm:"column:codigo_municipio"`
	UF                string `gorm:"column:uf"`
	CodigoUF          string `gorm:"column:codigo_uf"`
	CEP               string `gorm:"column:cep"`
	Telefone          string `gorm:"column:telefone"`
	InscricaoEstadual string `gorm:"column:inscricao_estadual"`
	RegimeTributario  string `gorm:"column:regime_tributario"`
	NfceSerie         string `gorm:"column:nfce_serie"`
}

func (r *repo) FindMerchant(ctx context.Context, db *gorm.DB, merchantCode string) (*domain.Merchant, error) {
	var row merchantRow
	err := db.WithContext(ctx).Raw(
		`SELECT cnpj, razao_social, nome_fantasia, logradouro, numero, bairro,
		        municipio, codigo_municipio, uf, codigo_uf, cep, telefone,
		        inscricao_estadual, regime_tributario, nfce_serie
		 FROM empresas WHERE codigo_empresa = ?`,
		merchantCode,
	).First(&row).Error
	if pkgdb.IsNotFoundErr(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Merchant{
		Code:              merchantCode,
		CNPJ:              row.CNPJ,
		CorporateName:     row.RazaoSocial,
		TradeName:         row.NomeFantasia,
		Street:            row.Logradouro,
		Number:            row.Numero,
		District:          row.Bairro,
		City:              row.Municipio,
		CityCode:          row.CodigoMunicipio,
		UF:                row.UF,
		UFCode:            row.CodigoUF,
		ZIP:               row.CEP,
		Phone:             row.Telefone,
		StateRegistration: row.InscricaoEstadual,
		TaxRegime:         row.RegimeTributario,
		Series:            row.NfceSerie,
	}, nil
}

type customerRow struct {
	ID                string `gorm:"column:id"`
	Nome              string `gorm:"column:nome"`
	TipoPessoa        string `gorm:"column:tipo_pessoa"`
	CpfCnpj           string `gorm:"column:cpf_cnpj"`
	InscricaoEstadual string `gorm:"column:inscricao_estadual"`
	Logradouro        string `gorm:"column:logradouro"`
	Numero            string `gorm:"column:numero"`
	Bairro            string `gorm:"column:bairro"`
	Municipio         string `gorm:"column:municipio"`
	CodigoMunicipio   string `gorm:"column:codigo_municipio"`
	UF                string `gorm:"column:uf"`
	CEP               string `gorm:"column:cep"`
	Email             string `gorm:"column:email"`
}

func (r *repo) FindCustomer(ctx context.Context, db *gorm.DB, merchantCode, customerID string) (*domain.Customer, error) {
	var row customerRow
	err := db.WithContext(ctx).Raw(
		`SELECT id, nome, tipo_pessoa, cpf_cnpj, inscricao_estadual, logradouro,
		        numero, bairro, municipio, codigo_municipio, uf, cep, email
		 FROM clientes WHERE id = ? AND codigo_empresa = ?`,
		customerID,
		merchantCode,
	).First(&row).Error
	if pkgdb.IsNotFoundErr(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Customer{
		ID:                row.ID,
		Name:              row.Nome,
		PersonType:        row.TipoPessoa,
		TaxID:             row.CpfCnpj,
		StateRegistration: row.InscricaoEstadual,
		Street:            row.Logradouro,
		Number:            row.Numero,
		District:          row.Bairro,
		City:              row.Municipio,
		CityCode:          row.CodigoMunicipio,
		UF:                row.UF,
		ZIP:               row.CEP,
		Email:             row.Email,
	}, nil
}

func mapString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func mapFloat(m map[string]any, key string) float64 {
	v, _ := mapFloatOK(m, key)
	return v
}

func mapFloatOK(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case []byte:
		parsed, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
