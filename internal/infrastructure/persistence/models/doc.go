// Package models contains the GORM persistence models of the billing tables.
// Models are separate from domain entities: repositories read and write models
// and convert with ToDomain / FromDomain.
//
//   - base.go: shared identity, version and company columns
//   - finance.go: account statuses, amortizations with their details and payments
//   - cash.go: cash accounts and cash transactions
//   - outbox.go: transactional outbox entries
package models
