package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ridwanfathin/vetclinic-billing-service/internal/domain"
)

const (
	// DefaultNumberPrefix starts every invoice number, e.g. INV-20240131-0001
	DefaultNumberPrefix = "INV"

	// maxNumberAttempts bounds the retries after an invoice number collision
	maxNumberAttempts = 5
)

// numberPrefix returns the per-day part shared by all numbers of billDate
func numberPrefix(prefix string, billDate domain.DateOnly) string {
	return fmt.Sprintf("%s-%s-", prefix, billDate.Format("20060102"))
}

// nextInvoiceNumber continues the sequence after last, the highest number
// already issued for dayPrefix. An empty or unparsable last starts at 0001.
func nextInvoiceNumber(last, dayPrefix string) string {
	seq := 0
	if suffix, ok := strings.CutPrefix(last, dayPrefix); ok {
		if n, err := strconv.Atoi(suffix); err == nil {
			seq = n
		}
	}
	return fmt.Sprintf("%s%04d", dayPrefix, seq+1)
}
