// Package serialize renders the assembled document tree into the consuming
// 4.00 XML layout. Field order, fixed precision and literal zero fields are
// part of the external contract; do not "clean up" the output.
package serialize

import (
	"fmt"
	"strings"
	"time"

	"github.com/quadrasoft/fiscal/internal/document/domain"
)

const namespace = "http://www.portalfiscal.inf.br/nfe"

// Render serializes the document to a complete UTF-8 XML string. It is a
// pure function of its input; two calls with equal documents produce
// byte-identical output.
func Render(doc domain.Document) string {
	var b strings.Builder
	b.Grow(4096 + len(doc.Items)*1024)

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, "<nfeProc versao=\"4.00\" xmlns=\"%s\">\n", namespace)
	fmt.Fprintf(&b, "  <NFe xmlns=\"%s\">\n", namespace)
	fmt.Fprintf(&b, "    <infNFe versao=\"4.00\" Id=\"%s\">\n", doc.Key)

	writeHeader(&b, doc.Header)
	writeIssuer(&b, doc.Issuer)
	writeRecipient(&b, doc.Recipient)
	for _, item := range doc.Items {
		writeItem(&b, item)
	}
	writeTotals(&b, doc.Totals)

	b.WriteString("      <transp>\n")
	fmt.Fprintf(&b, "        <modFrete>%d</modFrete>\n", doc.FreightMode)
	b.WriteString("      </transp>\n")

	for _, p := range doc.Payments {
		b.WriteString("      <pag>\n")
		b.WriteString("        <detPag>\n")
		fmt.Fprintf(&b, "          <tPag>%s</tPag>\n", p.TypeCode)
		fmt.Fprintf(&b, "          <vPag>%s</vPag>\n", money(p.Amount))
		b.WriteString("        </detPag>\n")
		b.WriteString("      </pag>\n")
	}

	b.WriteString("      <infAdic>\n")
	fmt.Fprintf(&b, "        <infCpl>%s</infCpl>\n", Escape(doc.ExtraInfo))
	b.WriteString("      </infAdic>\n")

	b.WriteString("    </infNFe>\n")
	b.WriteString("  </NFe>\n")
	b.WriteString("</nfeProc>")
	return b.String()
}

func writeHeader(b *strings.Builder, h domain.Header) {
	b.WriteString("      <ide>\n")
	tag(b, 8, "cUF", h.UFCode)
	tag(b, 8, "cNF", h.NumericCode)
	tag(b, 8, "natOp", Escape(h.NatOp))
	tag(b, 8, "mod", string(h.Model))
	tag(b, 8, "serie", h.Series)
	tag(b, 8, "nNF", h.Number)
	tag(b, 8, "dhEmi", h.IssuedAt.UTC().Format(time.RFC3339))
	tagInt(b, 8, "tpNF", h.Direction)
	tagInt(b, 8, "idDest", h.Destination)
	tag(b, 8, "cMunFG", h.CityCode)
	tagInt(b, 8, "tpImp", h.PrintFormat)
	tagInt(b, 8, "tpEmis", h.EmissionTyp)
	tagInt(b, 8, "tpAmb", h.Environment)
	tagInt(b, 8, "finNFe", h.Finality)
	tagInt(b, 8, "indFinal", h.FinalBuyer)
	tagInt(b, 8, "indPres", h.Presence)
	tagInt(b, 8, "procEmi", h.Process)
	tag(b, 8, "verProc", h.Version)
	b.WriteString("      </ide>\n")
}

func writeIssuer(b *strings.Builder, e domain.Issuer) {
	b.WriteString("      <emit>\n")
	tag(b, 8, "CNPJ", e.CNPJ)
	tag(b, 8, "xNome", Escape(e.CorporateName))
	tag(b, 8, "xFant", Escape(e.TradeName))
	b.WriteString("        <enderEmit>\n")
	writeAddress(b, 10, e.Address, true)
	b.WriteString("        </enderEmit>\n")
	tag(b, 8, "IE", e.StateRegistration)
	tag(b, 8, "CRT", e.TaxRegime)
	b.WriteString("      </emit>\n")
}

func writeRecipient(b *strings.Builder, d domain.Recipient) {
	b.WriteString("      <dest>\n")
	if d.CNPJ != "" {
		tag(b, 8, "CNPJ", d.CNPJ)
	} else if d.CPF != "" {
		tag(b, 8, "CPF", d.CPF)
	}
	if d.Name != "" {
		tag(b, 8, "xNome", Escape(d.Name))
	}
	if d.Address != nil {
		b.WriteString("        <enderDest>\n")
		writeAddress(b, 10, *d.Address, false)
		b.WriteString("        </enderDest>\n")
	}
	tagInt(b, 8, "indIEDest", d.TaxIndicator)
	if d.Email != "" {
		tag(b, 8, "email", Escape(d.Email))
	}
	b.WriteString("      </dest>\n")
}

func writeAddress(b *strings.Builder, indent int, a domain.Address, withPhone bool) {
	tag(b, indent, "xLgr", Escape(a.Street))
	tag(b, indent, "nro", Escape(a.Number))
	tag(b, indent, "xBairro", Escape(a.District))
	tag(b, indent, "cMun", a.CityCode)
	tag(b, indent, "xMun", Escape(a.City))
	tag(b, indent, "UF", a.UF)
	tag(b, indent, "CEP", a.ZIP)
	tag(b, indent, "cPais", a.CountryCode)
	tag(b, indent, "xPais", a.Country)
	if withPhone {
		tag(b, indent, "fone", a.Phone)
	}
}

func writeItem(b *strings.Builder, item domain.Item) {
	fmt.Fprintf(b, "      <det nItem=\"%d\">\n", item.Number)

	p := item.Product
	b.WriteString("        <prod>\n")
	tag(b, 10, "cProd", Escape(p.Code))
	tag(b, 10, "cEAN", p.EAN)
	tag(b, 10, "xProd", Escape(p.Description))
	tag(b, 10, "NCM", p.NCM)
	if p.CEST != "" {
		tag(b, 10, "CEST", p.CEST)
	}
	tag(b, 10, "CFOP", p.CFOP)
	tag(b, 10, "uCom", p.Unit)
	tag(b, 10, "qCom", qty(p.Quantity))
	tag(b, 10, "vUnCom", unitPrice(p.UnitPrice))
	tag(b, 10, "vProd", money(p.Total))
	tag(b, 10, "cEANTrib", p.TaxableEAN)
	tag(b, 10, "uTrib", p.TaxableUnit)
	tag(b, 10, "qTrib", qty(p.TaxableQty))
	tag(b, 10, "vUnTrib", unitPrice(p.TaxableUnitPr))
	tagInt(b, 10, "indTot", p.InTotal)
	b.WriteString("        </prod>\n")

	t := item.Tax
	b.WriteString("        <imposto>\n")
	b.WriteString("          <ICMS>\n")
	if t.CSOSN != "" {
		b.WriteString("            <ICMSSN102>\n")
		tag(b, 14, "orig", t.Origin)
		tag(b, 14, "CSOSN", t.CSOSN)
		b.WriteString("            </ICMSSN102>\n")
	} else {
		b.WriteString("            <ICMS00>\n")
		tag(b, 14, "orig", t.Origin)
		tag(b, 14, "CST", t.ICMSCST)
		tag(b, 14, "modBC", "3")
		tag(b, 14, "vBC", money(t.ICMSBase))
		tag(b, 14, "pICMS", money(t.ICMSRate))
		tag(b, 14, "vICMS", money(t.ICMSAmount))
		b.WriteString("            </ICMS00>\n")
	}
	b.WriteString("          </ICMS>\n")

	b.WriteString("          <PIS>\n")
	b.WriteString("            <PISAliq>\n")
	tag(b, 14, "CST", t.PISCST)
	tag(b, 14, "vBC", money(t.PISBase))
	tag(b, 14, "pPIS", money(t.PISRate))
	tag(b, 14, "vPIS", money(t.PISAmount))
	b.WriteString("            </PISAliq>\n")
	b.WriteString("          </PIS>\n")

	b.WriteString("          <COFINS>\n")
	b.WriteString("            <COFINSAliq>\n")
	tag(b, 14, "CST", t.COFINSCST)
	tag(b, 14, "vBC", money(t.COFINSBase))
	tag(b, 14, "pCOFINS", money(t.COFINSRate))
	tag(b, 14, "vCOFINS", money(t.COFINSAmount))
	b.WriteString("            </COFINSAliq>\n")
	b.WriteString("          </COFINS>\n")

	if t.HasIPI {
		b.WriteString("          <IPI>\n")
		tag(b, 12, "cEnq", "999")
		b.WriteString("            <IPITrib>\n")
		tag(b, 14, "CST", t.IPICST)
		tag(b, 14, "vBC", money(t.IPIBase))
		tag(b, 14, "pIPI", money(t.IPIRate))
		tag(b, 14, "vIPI", money(t.IPIAmount))
		b.WriteString("            </IPITrib>\n")
		b.WriteString("          </IPI>\n")
	}

	b.WriteString("        </imposto>\n")
	b.WriteString("      </det>\n")
}

// writeTotals emits the full totalizer block. The consuming schema requires
// every field present even when zero.
func writeTotals(b *strings.Builder, t domain.Totals) {
	b.WriteString("      <total>\n")
	b.WriteString("        <ICMSTot>\n")
	tag(b, 10, "vBC", "0.00")
	tag(b, 10, "vICMS", "0.00")
	tag(b, 10, "vICMSDeson", "0.00")
	tag(b, 10, "vFCP", "0.00")
	tag(b, 10, "vBCST", "0.00")
	tag(b, 10, "vST", "0.00")
	tag(b, 10, "vFCPST", "0.00")
	tag(b, 10, "vFCPSTRet", "0.00")
	tag(b, 10, "vProd", money(t.ProductTotal))
	tag(b, 10, "vFrete", "0.00")
	tag(b, 10, "vSeg", "0.00")
	tag(b, 10, "vDesc", money(t.Discount))
	tag(b, 10, "vII", "0.00")
	tag(b, 10, "vIPI", "0.00")
	tag(b, 10, "vIPIDevol", "0.00")
	tag(b, 10, "vPIS", "0.00")
	tag(b, 10, "vCOFINS", "0.00")
	tag(b, 10, "vOutro", "0.00")
	tag(b, 10, "vNF", money(t.Net))
	b.WriteString("        </ICMSTot>\n")
	b.WriteString("      </total>\n")
}

// Escape replaces the five XML-special characters. Escaping order matters:
// ampersand first.
func Escape(s string) string {
	return escaper.Replace(s)
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Precision contract of the consuming schema.
func money(v float64) string     { return fmt.Sprintf("%.2f", v) }
func qty(v float64) string       { return fmt.Sprintf("%.4f", v) }
func unitPrice(v float64) string { return fmt.Sprintf("%.10f", v) }

func tag(b *strings.Builder, indent int, name, value string) {
	b.WriteString(strings.Repeat(" ", indent))
	b.WriteByte('<')
	b.WriteString(name)
	b.WriteByte('>')
	b.WriteString(value)
	b.WriteString("</")
	b.WriteString(name)
	b.WriteString(">\n")
}

func tagInt(b *strings.Builder, indent int, name string, value int) {
	tag(b, indent, name, fmt.Sprintf("%d", value))
}
