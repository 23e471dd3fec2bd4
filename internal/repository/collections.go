// Package repository provides typed access to the document store
// collections. Each repository pairs plain reads with Tx variants usable
// inside a docstore transaction; services compose the Tx variants when an
// operation must commit atomically.
package repository

// Collection names. Exported so observers (the dashboard stream) can
// subscribe to them directly.
const (
	CollectionUsers    = "users"
	CollectionFamilies = "families"
	CollectionTasks    = "tasks"
	CollectionRewards  = "rewards"
	CollectionClaims   = "claims"
)

// Collections lists every collection, in backup order.
func Collections() []string {
	return []string{
		CollectionUsers,
		CollectionFamilies,
		CollectionTasks,
		CollectionRewards,
		CollectionClaims,
	}
}
