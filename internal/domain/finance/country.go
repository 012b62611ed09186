package finance

import (
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// Country is the tax jurisdiction a company issues documents under
type Country string

const (
	CountryPeru    Country = "PE" // SUNAT
	CountryEcuador Country = "EC" // SRI
)

// IsValid checks if the country is supported
func (c Country) IsValid() bool {
	return c == CountryPeru || c == CountryEcuador
}

// String returns the string representation
func (c Country) String() string {
	return string(c)
}

// DefaultCurrency returns the currency documents default to in this country
func (c Country) DefaultCurrency() valueobject.Currency {
	if c == CountryEcuador {
		return valueobject.USD
	}
	return valueobject.PEN
}

// Locale returns the language tag used to render amounts
func (c Country) Locale() language.Tag {
	if c == CountryEcuador {
		return language.MustParse("es-EC")
	}
	return language.MustParse("es-PE")
}

// TaxAuthority returns the name of the tax administration
func (c Country) TaxAuthority() string {
	if c == CountryEcuador {
		return "SRI"
	}
	return "SUNAT"
}

// DocumentType is the kind of sale or purchase document an account status tracks
type DocumentType string

const (
	DocumentTypeInvoice            DocumentType = "INVOICE"
	DocumentTypeReceipt            DocumentType = "RECEIPT" // boleta de venta
	DocumentTypeCreditNote         DocumentType = "CREDIT_NOTE"
	DocumentTypeDebitNote          DocumentType = "DEBIT_NOTE"
	DocumentTypeSaleNote           DocumentType = "SALE_NOTE" // internal nota de venta
	DocumentTypePurchaseSettlement DocumentType = "PURCHASE_SETTLEMENT"
)

// tax authority catalog codes (SUNAT catálogo 01, SRI tabla 3)
var taxCodes = map[Country]map[DocumentType]string{
	CountryPeru: {
		DocumentTypeInvoice:    "01",
		DocumentTypeReceipt:    "03",
		DocumentTypeCreditNote: "07",
		DocumentTypeDebitNote:  "08",
		DocumentTypeSaleNote:   "NV",
	},
	CountryEcuador: {
		DocumentTypeInvoice:            "01",
		DocumentTypePurchaseSettlement: "03",
		DocumentTypeCreditNote:         "04",
		DocumentTypeDebitNote:          "05",
		DocumentTypeSaleNote:           "NV",
	},
}

// TaxCode returns the authority code for the document type, and false when the
// type does not exist in that country.
func (t DocumentType) TaxCode(c Country) (string, bool) {
	code, ok := taxCodes[c][t]
	return code, ok
}

// IsValidFor checks if the document type can be issued in the country
func (t DocumentType) IsValidFor(c Country) bool {
	_, ok := t.TaxCode(c)
	return ok
}

// IsCreditNote reports whether the document carries credit rather than debt
func (t DocumentType) IsCreditNote() bool {
	return t == DocumentTypeCreditNote
}

// IsElectronic reports whether the document is reported to the tax authority.
// Sale notes are internal and never emitted.
func (t DocumentType) IsElectronic() bool {
	return t != DocumentTypeSaleNote
}

// PaymentMethod is how a payment leg is settled
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodDeposit      PaymentMethod = "DEPOSIT"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodCreditNote   PaymentMethod = "CREDIT_NOTE"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodDeposit,
		PaymentMethodCard, PaymentMethodCheck, PaymentMethodCreditNote:
		return true
	}
	return false
}

// RequiresBank reports whether the leg must move a bank account
func (m PaymentMethod) RequiresBank() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodDeposit, PaymentMethodCard, PaymentMethodCheck:
		return true
	}
	return false
}

// RequiresCashRegister reports whether the leg must move a cash register
func (m PaymentMethod) RequiresCashRegister() bool {
	return m == PaymentMethodCash
}

// MovesCash reports whether the leg produces a cash/bank transaction
func (m PaymentMethod) MovesCash() bool {
	return m != PaymentMethodCreditNote
}

// BankingThresholds holds, per country and currency, the document total from which
// payments must go through the financial system (Ley 28194 in Peru, LRTI art. 103 in Ecuador).
type BankingThresholds map[Country]map[valueobject.Currency]decimal.Decimal

// DefaultBankingThresholds returns the statutory thresholds
func DefaultBankingThresholds() BankingThresholds {
	return BankingThresholds{
		CountryPeru: {
			valueobject.PEN: decimal.NewFromInt(2000),
			valueobject.USD: decimal.NewFromInt(500),
		},
		CountryEcuador: {
			valueobject.USD: decimal.NewFromInt(1000),
		},
	}
}

// RequiresBanking reports whether a document of the given total must be settled
// with a banked payment method.
func (b BankingThresholds) RequiresBanking(c Country, cur valueobject.Currency, documentTotal decimal.Decimal) bool {
	limit, ok := b[c][cur]
	if !ok {
		return false
	}
	return documentTotal.GreaterThanOrEqual(limit)
}
