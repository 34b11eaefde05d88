package reconcile

import (
	"fmt"
	"hash/fnv"

	"github.com/raditpra/unduh-bot/internal/trakteer"
)

// DeriveExternalID builds the stable identifier for a feed record by
// hashing the supporter name, message, amount and update timestamp.
// Trakteer issues no native transaction ID, so this hash is the dedup
// key. It is collision prone and only as stable as those four fields;
// the later dedup layers (staleness, terminal triple, active VIP) are
// mandatory backstops, not redundancy.
func DeriveExternalID(record trakteer.Record) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s_%s_%d_%s",
		record.SupporterName,
		record.SupportMessage,
		record.Amount,
		record.UpdatedAt,
	)

	return fmt.Sprintf("trakteer_%x", h.Sum64())
}
