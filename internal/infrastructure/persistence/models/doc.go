// Package models contains the GORM persistence models of the ledger tables.
//
// Domain entities carry no ORM tags. Each model here maps one table and
// converts to and from its aggregate with ToDomain / FromDomain; repositories
// read and write models only.
//
//   - base.go: shared id, timestamp and version columns
//   - tenant.go: tenants
//   - bill.go: bills
//   - payment.go: payments
package models
