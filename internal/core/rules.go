package core

import "stillcore/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewRunLifecycleRule())
	engine.Register(NewSpiritReferenceRule())
	engine.Register(NewStockFloorRule())
	return engine
}

// payloadAs extracts a typed entity from a change payload. Returns the zero
// value and false when the payload is absent or of a different kind.
func payloadAs[T any](payload any) (T, bool) {
	v, ok := payload.(T)
	return v, ok
}
