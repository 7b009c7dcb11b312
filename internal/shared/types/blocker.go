package types

// BlockerStatus is the UI-facing view of the ad/tracker blocker.
// BlockedCount increases monotonically since process start.
type BlockerStatus struct {
	Enabled      bool   `json:"enabled"`
	BlockedCount uint64 `json:"blocked_count"`
	RuleCount    int    `json:"rule_count"`
}
