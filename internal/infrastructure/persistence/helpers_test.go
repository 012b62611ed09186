package persistence

import (
	"testing"
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	testCompanyID = uuid.MustParse("00000000-0000-0000-0000-0000000000c1")
	otherCompany  = uuid.MustParse("00000000-0000-0000-0000-0000000000c2")
	testPartnerID = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
)

// newTestDB opens an in-memory sqlite database with the billing schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open(":memory:"))
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.DB.AutoMigrate(
		&models.AccountStatusModel{},
		&models.AmortizationModel{},
		&models.AmortizationDetailModel{},
		&models.AmortizationPaymentModel{},
		&models.CashAccountModel{},
		&models.CashTransactionModel{},
		&models.OutboxEntryModel{},
	))
	return db.DB
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type statusOpts struct {
	companyID uuid.UUID
	docType   finance.DocumentType
	number    string
	total     string
	currency  valueobject.Currency
	issue     time.Time
	due       *time.Time
}

func newStatus(t *testing.T, o statusOpts) *finance.AccountStatus {
	t.Helper()
	if o.companyID == uuid.Nil {
		o.companyID = testCompanyID
	}
	if o.docType == "" {
		o.docType = finance.DocumentTypeInvoice
	}
	if o.number == "" {
		o.number = "F001-" + uuid.NewString()[:8]
	}
	if o.currency == "" {
		o.currency = valueobject.PEN
	}
	if o.issue.IsZero() {
		o.issue = day(2026, 1, 10)
	}
	s, err := finance.NewAccountStatus(o.companyID, finance.DocumentInfo{
		Flow:           finance.FlowReceivable,
		Country:        finance.CountryPeru,
		DocumentType:   o.docType,
		DocumentID:     uuid.New(),
		DocumentNumber: o.number,
		PartnerID:      testPartnerID,
		PartnerName:    "Comercial Andina SAC",
		Currency:       o.currency,
		TotalAmount:    dec(o.total),
		IssueDate:      o.issue,
		DueDate:        o.due,
	})
	require.NoError(t, err)
	s.ClearDomainEvents()
	return s
}

func ptr[T any](v T) *T {
	return &v
}
