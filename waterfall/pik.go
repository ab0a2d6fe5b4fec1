package waterfall

// NewPIKToggleStrategy builds the PIK Toggle variant of spec §4.7: identical
// to Traditional, except every PIK-eligible tranche's interest step
// consults elect instead of always paying cash — when elect returns true
// for that tranche this period (via Strategy.PIKPolicy), Strategy.Run
// records the step with zero cash paid, and the deal engine then
// capitalizes the amount due into the tranche balance.
func NewPIKToggleStrategy(cfg Config, elect func(view EngineView, trancheName string) bool) (*Strategy, error) {
	base, err := NewTraditionalStrategy(cfg)
	if err != nil {
		return nil, err
	}
	base.Name = "PIKToggle"
	base.PIKPolicy = PIKPolicy{Elect: elect}
	return base, nil
}
