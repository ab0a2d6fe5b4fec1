package waterfall

import "github.com/cloanalytics/dealengine/dealerr"

// Factory builds a Strategy from a Config. A user-defined strategy may
// register its own factory under a new name without touching this package
// (spec §4.7: "a user-defined strategy is obtained by providing the three
// pieces; a registry maps a strategy name to a factory").
type Factory func(Config) (*Strategy, error)

// Registry maps a strategy name to its factory.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry constructs a registry pre-populated with every strategy
// variant of spec §4.7: Traditional, Turbo, PIK Toggle (using NoPIK's
// elect-nothing policy by default — callers wanting an active PIK election
// function should call NewPIKToggleStrategy directly), Equity Claw-Back,
// Call Protection, and Mag 6 through Mag 17.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("Traditional", NewTraditionalStrategy)
	r.Register("Turbo", NewTurboStrategy)
	r.Register("PIKToggle", func(cfg Config) (*Strategy, error) {
		return NewPIKToggleStrategy(cfg, func(EngineView, string) bool { return false })
	})
	r.Register("EquityClawBack", NewClawBackStrategy)
	r.Register("CallProtection", NewCallProtectionStrategy)
	for _, v := range []string{
		"Mag6", "Mag7", "Mag8", "Mag9", "Mag10", "Mag11",
		"Mag12", "Mag13", "Mag14", "Mag15", "Mag16", "Mag17",
	} {
		version := v
		r.Register(version, func(cfg Config) (*Strategy, error) {
			cfg.MagVersion = version
			return NewMagStrategy(cfg)
		})
	}
	return r
}

// Register installs a factory under name, overwriting any prior entry —
// the extension point for user-defined strategies.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Build constructs a Strategy by name.
func (r *Registry) Build(name string, cfg Config) (*Strategy, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, dealerr.NewBadInput("waterfall: no strategy registered under name %q", name)
	}
	return f(cfg)
}

// Names returns every registered strategy name.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	return out
}
