// Package ledger holds the point arithmetic every money-like decision in
// the system reduces to. The functions are pure; callers are responsible
// for running them against a fresh balance inside a store transaction.
package ledger

// CanAfford reports whether a balance covers a cost.
func CanAfford(balance, cost int) bool {
	return balance >= cost
}

// Debit returns the balance after spending cost points. It does not guard
// against overdraft; callers must check CanAfford under the same
// transaction snapshot first.
func Debit(balance, cost int) int {
	return balance - cost
}

// Credit returns the balance after earning amount points. Awards are always
// applied in full.
func Credit(balance, amount int) int {
	return balance + amount
}
