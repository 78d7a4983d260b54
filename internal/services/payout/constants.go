package payout

import (
	"time"

	"paydesk/internal/models"
)

// Default retry configuration
const (
	DefaultMaxRetries        = 3
	DefaultInitialRetryDelay = 60 * time.Second
	DefaultBackoffMultiplier = 2.0
	DefaultMaxRetryDelay     = 30 * time.Minute
	DefaultCurrency          = "INR"
)

// Cache keys
const (
	TransactionCachePrefix = "transaction:"
)

// defaultModeLimits holds the per-rail amount windows in paise. UPI caps at
// 1 lakh, IMPS at 5 lakh, NEFT at 1 crore; RTGS carries a 2 lakh floor.
var defaultModeLimits = map[string]models.ModeLimits{
	models.ModeUPI:  {Min: 100, Max: 10_000_000},
	models.ModeIMPS: {Min: 100, Max: 50_000_000},
	models.ModeNEFT: {Min: 100, Max: 1_000_000_000},
	models.ModeRTGS: {Min: 20_000_000, Max: 5_000_000_000},
}

var validTypes = map[string]bool{
	models.TypeTransfer: true,
	models.TypePayment:  true,
	models.TypeRefund:   true,
	models.TypeCashback: true,
	models.TypeSalary:   true,
}

var validPurposes = map[string]bool{
	models.PurposePayout:      true,
	models.PurposeRefund:      true,
	models.PurposeCashback:    true,
	models.PurposeSalary:      true,
	models.PurposeUtilityBill: true,
	models.PurposeVendorBill:  true,
}
