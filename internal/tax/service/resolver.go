package service

import (
	"strconv"
	"strings"

	"github.com/quadrasoft/fiscal/internal/tax/domain"
	"go.uber.org/zap"
)

// Candidate lists per attribute, evaluated first-match. Order matters: the
// legacy camelCase product columns take precedence over the current
// snake_case generation, mirroring how historical rows were written. The
// *Externo variants apply to cross-region operations and fall through to the
// intra-region lists when absent.
var (
	cfopIntra       = []string{"cfopInterno", "cfop_interno", "cfop"}
	cfopInter       = []string{"cfopExterno", "cfop_externo"}
	icmsCSTIntra    = []string{"cstIcmsInterno", "cst_icms_interno"}
	icmsCSTInter    = []string{"cstIcmsExterno", "cst_icms_externo"}
	csosnIntra      = []string{"csosnInterno", "csosn_interno", "csosn"}
	csosnInter      = []string{"csosnExterno", "csosn_externo"}
	icmsRateIntra   = []string{"aliqIcmsInterno", "aliq_icms_interno"}
	icmsRateInter   = []string{"aliqIcmsExterno", "aliq_icms_externo"}
	pisCSTKeys      = []string{"cstPisSaida", "cst_pis_saida"}
	pisRateKeys     = []string{"aliqPisPercent", "aliq_pis_percent"}
	cofinsCSTKeys   = []string{"cstCofinsSaida", "cst_cofins_saida"}
	cofinsRateKeys  = []string{"aliqCofinsPercent", "aliq_cofins_percent"}
	ipiCSTKeys      = []string{"cstIpi", "cst_ipi"}
	ipiRateKeys     = []string{"aliqIpiPercent", "aliq_ipi_percent"}
	ncmKeys         = []string{"ncm"}
	cestKeys        = []string{"cest"}
	originKeys      = []string{"icms_origem", "icmsOrigem"}
)

type Resolver struct {
	log *zap.Logger
}

func NewResolver(log *zap.Logger) domain.Resolver {
	return &Resolver{log: log.Named("tax.resolver")}
}

// Resolve derives the item's tax fields. Attributes that fail every
// candidate fall back to documented defaults and mark the result
// incomplete; the engine stays usable against sparse product catalogs.
func (r *Resolver) Resolve(productID string, profile map[string]any, opts domain.ResolveOptions) domain.Fields {
	var missing []string

	fields := domain.Fields{}

	fields.CFOP = firstString(profile, cfopIntra)
	if opts.Interstate {
		if v := firstString(profile, cfopInter); v != "" {
			fields.CFOP = v
		}
	}
	if fields.CFOP == "" {
		if opts.Inbound {
			fields.CFOP = domain.DefaultCFOPInbound
		} else {
			fields.CFOP = domain.DefaultCFOPOutbound
		}
		missing = append(missing, "cfop")
	}

	fields.NCM = digits(firstString(profile, ncmKeys), 8)
	if fields.NCM == "" {
		fields.NCM = domain.DefaultNCM
		missing = append(missing, "ncm")
	}

	fields.CEST = firstString(profile, cestKeys)

	fields.Origin = firstString(profile, originKeys)
	if fields.Origin == "" {
		fields.Origin = domain.DefaultOrigin
	}

	fields.CSOSN = pick(profile, csosnIntra, csosnInter, opts.Interstate)
	fields.ICMSCST = pick(profile, icmsCSTIntra, icmsCSTInter, opts.Interstate)
	if fields.CSOSN == "" && fields.ICMSCST == "" {
		fields.ICMSCST = domain.DefaultICMSCST
		missing = append(missing, "icms_cst")
	}
	if opts.Interstate {
		if v, ok := firstFloatOK(profile, icmsRateInter); ok {
			fields.ICMSRate = v
		} else {
			fields.ICMSRate = firstFloat(profile, icmsRateIntra)
		}
	} else {
		fields.ICMSRate = firstFloat(profile, icmsRateIntra)
	}

	fields.PISCST = firstString(profile, pisCSTKeys)
	if fields.PISCST == "" {
		fields.PISCST = domain.DefaultPISCST
		missing = append(missing, "pis_cst")
	}
	fields.PISRate = firstFloat(profile, pisRateKeys)

	fields.COFINSCST = firstString(profile, cofinsCSTKeys)
	if fields.COFINSCST == "" {
		// Historical rows reused the PIS situation code for COFINS.
		fields.COFINSCST = fields.PISCST
	}
	fields.COFINSRate = firstFloat(profile, cofinsRateKeys)

	fields.IPICST = firstString(profile, ipiCSTKeys)
	fields.IPIRate = firstFloat(profile, ipiRateKeys)

	if len(missing) > 0 {
		fields.Incomplete = true
		fields.Missing = missing
		r.log.Warn("incomplete tax profile, defaults applied",
			zap.String("product_id", productID),
			zap.Strings("missing", missing),
		)
	}

	return fields
}

func pick(m map[string]any, intra, inter []string, interstate bool) string {
	if interstate {
		if v := firstString(m, inter); v != "" {
			return v
		}
	}
	return firstString(m, intra)
}

func firstString(m map[string]any, candidates []string) string {
	if m == nil {
		return ""
	}
	for _, key := range candidates {
		if v, ok := m[key]; ok {
			if s := asString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstFloat(m map[string]any, candidates []string) float64 {
	v, _ := firstFloatOK(m, candidates)
	return v
}

func firstFloatOK(m map[string]any, candidates []string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	for _, key := range candidates {
		if v, ok := m[key]; ok {
			if f, ok := asFloat(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case []byte:
		return asFloat(string(t))
	default:
		return 0, false
	}
}

// digits keeps numeric characters only, truncated to max.
func digits(s string, max int) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == max {
				break
			}
		}
	}
	return b.String()
}
