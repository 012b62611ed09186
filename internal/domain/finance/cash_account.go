package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashAccountKind distinguishes physical cash registers from bank accounts
type CashAccountKind string

const (
	CashAccountKindRegister CashAccountKind = "CASH_REGISTER"
	CashAccountKindBank     CashAccountKind = "BANK_ACCOUNT"
)

// IsValid checks if the kind is valid
func (k CashAccountKind) IsValid() bool {
	return k == CashAccountKindRegister || k == CashAccountKindBank
}

// CashAccount is a cash register or bank account with a running balance.
// Every balance change is recorded as a CashTransaction carrying the balance after it.
type CashAccount struct {
	shared.CompanyAggregateRoot
	Kind          CashAccountKind
	Name          string
	BankName      string
	AccountNumber string
	Currency      valueobject.Currency
	Balance       decimal.Decimal
	Active        bool
}

// NewCashAccount creates a new cash register or bank account
func NewCashAccount(companyID uuid.UUID, kind CashAccountKind, name string, currency valueobject.Currency) (*CashAccount, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", fmt.Sprintf("Invalid cash account kind: %s", kind))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Cash account name cannot be empty")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unsupported currency: %s", currency))
	}

	return &CashAccount{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Kind:                 kind,
		Name:                 name,
		Currency:             currency,
		Balance:              decimal.Zero,
		Active:               true,
	}, nil
}

// SetBankDetails sets the bank name and account number; only bank accounts carry them
func (a *CashAccount) SetBankDetails(bankName, accountNumber string) error {
	if a.Kind != CashAccountKindBank {
		return shared.NewDomainError("INVALID_KIND", "Only bank accounts have bank details")
	}
	a.BankName = strings.TrimSpace(bankName)
	a.AccountNumber = strings.TrimSpace(accountNumber)
	if a.AccountNumber == "" {
		return shared.NewDomainError("INVALID_ACCOUNT_NUMBER", "Bank account number cannot be empty")
	}
	a.Touch()
	return nil
}

// Accepts checks that a payment leg of the given method can move this account
func (a *CashAccount) Accepts(method PaymentMethod, currency valueobject.Currency) error {
	if !a.Active {
		return shared.NewDomainError("ACCOUNT_INACTIVE", fmt.Sprintf("Cash account %s is inactive", a.Name))
	}
	if a.Currency != currency {
		return shared.NewDomainError("CURRENCY_MISMATCH",
			fmt.Sprintf("Cash account %s is in %s, payment is in %s", a.Name, a.Currency, currency))
	}
	if method.RequiresBank() && a.Kind != CashAccountKindBank {
		return shared.NewDomainError("INVALID_ACCOUNT_KIND",
			fmt.Sprintf("Payment method %s requires a bank account", method))
	}
	if method.RequiresCashRegister() && a.Kind != CashAccountKindRegister {
		return shared.NewDomainError("INVALID_ACCOUNT_KIND",
			fmt.Sprintf("Payment method %s requires a cash register", method))
	}
	return nil
}

// Record moves the balance and returns the transaction describing the movement.
// Expenses cannot take the balance below zero.
func (a *CashAccount) Record(txType TransactionType, origin TransactionOrigin, method PaymentMethod, amount decimal.Decimal, date time.Time, reference string) (*CashTransaction, error) {
	if !a.Active {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", fmt.Sprintf("Cash account %s is inactive", a.Name))
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", fmt.Sprintf("Invalid transaction type: %s", txType))
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := a.move(txType, amount); err != nil {
		return nil, err
	}
	return newCashTransaction(a, txType, origin, method, amount, date, reference), nil
}

// Reverse voids an active transaction of this account and records the opposite movement
func (a *CashAccount) Reverse(tx *CashTransaction, date time.Time, reason string) (*CashTransaction, error) {
	if tx.CashAccountID != a.ID {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Transaction does not belong to this cash account")
	}
	if err := tx.checkVoidable(); err != nil {
		return nil, err
	}
	opposite := tx.Type.Opposite()
	if err := a.move(opposite, tx.Amount); err != nil {
		return nil, err
	}
	if err := tx.Void(reason); err != nil {
		return nil, err
	}
	reversal := newCashTransaction(a, opposite, TransactionOriginReversal, tx.PaymentMethod, tx.Amount, date,
		fmt.Sprintf("Reversal of %s", tx.Reference))
	reversal.AmortizationID = tx.AmortizationID
	reversal.ReversalOfID = &tx.ID
	reversal.Description = reason
	return reversal, nil
}

// Deactivate closes the account for new movements
func (a *CashAccount) Deactivate() error {
	if !a.Active {
		return shared.NewDomainError("INVALID_STATE", "Cash account is already inactive")
	}
	a.Active = false
	a.Touch()
	return nil
}

// BalanceMoney returns the balance as Money
func (a *CashAccount) BalanceMoney() valueobject.Money {
	return valueobject.MustMoney(a.Balance, a.Currency)
}

func (a *CashAccount) move(txType TransactionType, amount decimal.Decimal) error {
	switch txType {
	case TransactionTypeIncome:
		a.Balance = a.Balance.Add(amount)
	case TransactionTypeExpense:
		if amount.GreaterThan(a.Balance) {
			return shared.NewDomainError("INSUFFICIENT_BALANCE",
				fmt.Sprintf("Cash account %s has %s available, %s requested",
					a.Name, a.Balance.StringFixed(valueobject.Scale), amount.StringFixed(valueobject.Scale)))
		}
		a.Balance = a.Balance.Sub(amount)
	}
	a.Touch()
	return nil
}
