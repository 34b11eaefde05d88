package trakteer

import (
	"fmt"
	"net/url"
)

// PaymentURL builds the tip page link for a VIP purchase. The
// supporter_message parameter embeds "<userId> <days>", the contract
// the reconciler later parses back out of the feed.
func PaymentURL(pageName string, userID int64, days, quantity int) string {
	message := fmt.Sprintf("%d %d", userID, days)

	query := url.Values{}
	query.Set("quantity", fmt.Sprintf("%d", quantity))
	query.Set("step", "2")
	query.Set("supporter_message", message)

	return fmt.Sprintf("https://trakteer.id/%s/tip?%s", pageName, query.Encode())
}
