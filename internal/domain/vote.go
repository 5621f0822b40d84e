package domain

// VoteChoice is the side of a binary market a user voted for.
type VoteChoice string

const (
	VoteYes VoteChoice = "yes"
	VoteNo  VoteChoice = "no"
)

// Valid reports whether the choice is one of the two accepted values.
func (c VoteChoice) Valid() bool {
	return c == VoteYes || c == VoteNo
}

// VoteRecord is a single user action against a market. The ledger keeps at
// most one record per (PredictionID, WalletAddress) pair; saving again for
// the same pair replaces the previous record.
type VoteRecord struct {
	PredictionID  int64      `json:"predictionId"`
	Choice        VoteChoice `json:"choice"`
	WalletAddress string     `json:"walletAddress"`
	Timestamp     int64      `json:"timestamp"` // Unix milliseconds
	Amount        float64    `json:"amount,omitempty"`
}

// VoteCounts are per-market tallies derived from the ledger.
type VoteCounts struct {
	Yes int `json:"yes"`
	No  int `json:"no"`
}
