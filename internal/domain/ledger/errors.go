package ledger

import "github.com/pgledger/backend/internal/domain/shared"

// Error and report codes specific to billing
const (
	CodeNoTenants      = "NO_TENANTS"
	CodeDuplicateBill  = "DUPLICATE_BILL"
	CodeMissingReading = "MISSING_READING"
	CodeOrphanPayment  = "ORPHAN_PAYMENT"
	CodeRoomEmptied    = "ROOM_EMPTIED"
)

// ErrNoTenants aborts a generation run before anything is written
var ErrNoTenants = shared.NewDomainError(CodeNoTenants, "no active tenants to bill")
