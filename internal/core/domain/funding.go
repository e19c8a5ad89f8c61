package domain

import "fmt"

// FundingMode selects the accounting regime of the deployment. It is fixed at
// startup, never per-vesting.
type FundingMode uint8

const (
	// FundingModeFull requires the issuer to deposit the whole schedule total
	// at creation time.
	FundingModeFull FundingMode = iota
	// FundingModePartial lets the issuer deposit incrementally; claimable
	// amounts are capped by what has actually been funded.
	FundingModePartial
)

func (m FundingMode) String() string {
	return []string{"full", "partial"}[m]
}

func ParseFundingMode(s string) (FundingMode, error) {
	switch s {
	case "full":
		return FundingModeFull, nil
	case "partial":
		return FundingModePartial, nil
	default:
		return 0, fmt.Errorf("unknown funding mode: %s", s)
	}
}
