package service

import (
	"strings"

	orderdomain "github.com/quadrasoft/fiscal/internal/order/domain"
)

// PaymentTypeOther is the catch-all payment-type code.
const PaymentTypeOther = "99"

// validPaymentCodes is the accepted tPag code set of the consuming schema.
var validPaymentCodes = map[string]struct{}{
	"01": {}, // dinheiro
	"02": {}, // cheque
	"03": {}, // cartao de credito
	"04": {}, // cartao de debito
	"05": {}, // credito loja
	"10": {}, // vale alimentacao
	"11": {}, // vale refeicao
	"12": {}, // vale presente
	"13": {}, // vale combustivel
	"15": {}, // boleto
	"16": {}, // deposito bancario
	"17": {}, // pix
	"18": {}, // transferencia bancaria
	"19": {}, // cashback
	"90": {}, // sem pagamento
}

// labelCodes maps normalized method labels to codes, used only when the
// payment method record carries no code of its own.
var labelCodes = map[string]string{
	"dinheiro":          "01",
	"cheque":            "02",
	"cartao de credito": "03",
	"credito":           "03",
	"cartao de debito":  "04",
	"debito":            "04",
	"crediario":         "05",
	"vale alimentacao":  "10",
	"vale refeicao":     "11",
	"boleto":            "15",
	"pix":               "17",
	"transferencia":     "18",
}

// PaymentTypeCode resolves the tax-authority payment-type code for a
// payment: the stored method code when valid, a label match otherwise, and
// the catch-all code as a last resort.
func PaymentTypeCode(p orderdomain.Payment) string {
	code := strings.TrimSpace(p.MethodCode)
	if len(code) == 1 {
		code = "0" + code
	}
	if _, ok := validPaymentCodes[code]; ok {
		return code
	}
	if code, ok := labelCodes[normalizeLabel(p.MethodLabel)]; ok {
		return code
	}
	return PaymentTypeOther
}

func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	replacer := strings.NewReplacer(
		"á", "a", "ã", "a", "â", "a",
		"é", "e", "ê", "e",
		"í", "i",
		"ó", "o", "õ", "o", "ô", "o",
		"ú", "u",
		"ç", "c",
	)
	return replacer.Replace(label)
}
