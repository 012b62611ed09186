package finance

import "time"

var statusLabels = map[AccountStatusState]string{
	AccountStatusPending:   "Pendiente",
	AccountStatusPartial:   "Parcial",
	AccountStatusPaid:      "Pagado",
	AccountStatusCancelled: "Anulado",
}

const expiredLabel = "Vencido"

// StatusLabel is the display label shown on statements; open documents past due read "Vencido"
func (s *AccountStatus) StatusLabel(asOf time.Time) string {
	if (s.Expired && s.Status.IsOpen()) || s.IsOverdue(asOf) {
		return expiredLabel
	}
	return statusLabels[s.Status]
}

// FormattedTotal renders the total in the document country's locale
func (s *AccountStatus) FormattedTotal() string {
	return s.TotalMoney().Format(s.Country.Locale())
}

// FormattedPaid renders the paid amount in the document country's locale
func (s *AccountStatus) FormattedPaid() string {
	return s.PaidMoney().Format(s.Country.Locale())
}

// FormattedDue renders the due amount in the document country's locale
func (s *AccountStatus) FormattedDue() string {
	return s.DueMoney().Format(s.Country.Locale())
}

var flowLabels = map[AccountFlow]string{
	FlowReceivable: "Por cobrar",
	FlowPayable:    "Por pagar",
}

// Label returns the display label of the flow
func (f AccountFlow) Label() string {
	return flowLabels[f]
}

var methodLabels = map[PaymentMethod]string{
	PaymentMethodCash:         "Efectivo",
	PaymentMethodBankTransfer: "Transferencia",
	PaymentMethodDeposit:      "Depósito",
	PaymentMethodCard:         "Tarjeta",
	PaymentMethodCheck:        "Cheque",
	PaymentMethodCreditNote:   "Nota de crédito",
}

// Label returns the display label of the payment method
func (m PaymentMethod) Label() string {
	return methodLabels[m]
}
