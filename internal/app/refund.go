package app

// Cancellation refund tiers, in whole days before check-in. The source system
// carried two divergent tier sets; the published 30/14 policy is canonical.
const (
	fullRefundDays = 30
	halfRefundDays = 14
)

// Refund computes the refund for a cancellation made daysUntilCheckIn days
// before arrival. Pure: same inputs always yield the same amounts.
func Refund(totalAmount, daysUntilCheckIn int) (amount, percentage int) {
	switch {
	case daysUntilCheckIn >= fullRefundDays:
		return totalAmount, 100
	case daysUntilCheckIn >= halfRefundDays:
		return totalAmount / 2, 50
	default:
		return 0, 0
	}
}
