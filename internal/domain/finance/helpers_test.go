package finance

import (
	"testing"
	"time"

	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	testCompanyID = uuid.MustParse("00000000-0000-0000-0000-0000000000c1")
	testPartnerID = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestStatus(t *testing.T, docType DocumentType, total string, due *time.Time) *AccountStatus {
	t.Helper()
	s, err := NewAccountStatus(testCompanyID, DocumentInfo{
		Flow:           FlowReceivable,
		Country:        CountryPeru,
		DocumentType:   docType,
		DocumentID:     uuid.New(),
		DocumentNumber: "F001-" + uuid.NewString()[:8],
		PartnerID:      testPartnerID,
		PartnerName:    "Comercial Andina SAC",
		Currency:       valueobject.PEN,
		TotalAmount:    dec(total),
		IssueDate:      date(2026, 1, 10),
		DueDate:        due,
	})
	require.NoError(t, err)
	s.ClearDomainEvents()
	return s
}

func newTestAccount(t *testing.T, kind CashAccountKind) *CashAccount {
	t.Helper()
	a, err := NewCashAccount(testCompanyID, kind, "Caja principal", valueobject.PEN)
	require.NoError(t, err)
	return a
}
