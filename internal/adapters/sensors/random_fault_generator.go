package sensors

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// RandomFaultProbabilities configures the odds, per check, that a background
// fault is injected into the simulated truck.
type RandomFaultProbabilities struct {
	Electrical float64
	Hydraulic  float64
}

// DefaultRandomFaultProbabilities mirrors the reference simulator's tuning.
func DefaultRandomFaultProbabilities() RandomFaultProbabilities {
	return RandomFaultProbabilities{Electrical: 0.05, Hydraulic: 0.05}
}

// RandomFaultGenerator periodically rolls for spontaneous electrical and
// hydraulic faults, injecting at most one of each until explicitly cleared.
// It models the unpredictable hardware failures a real truck experiences;
// once active, a fault requires an operator RESET_FAULT command to clear,
// mirrored here by ClearAllFaults.
type RandomFaultGenerator struct {
	mu sync.Mutex

	injectElectrical func(bool)
	injectHydraulic  func(bool)
	checkPeriod      time.Duration
	probabilities    RandomFaultProbabilities
	rng              *rand.Rand

	electricalActive bool
	hydraulicActive  bool
}

// NewRandomFaultGenerator builds a generator that calls injectElectrical/
// injectHydraulic whenever it flips a fault on or off.
func NewRandomFaultGenerator(injectElectrical, injectHydraulic func(bool), checkPeriod time.Duration, probabilities RandomFaultProbabilities, rng *rand.Rand) *RandomFaultGenerator {
	return &RandomFaultGenerator{
		injectElectrical: injectElectrical,
		injectHydraulic:  injectHydraulic,
		checkPeriod:      checkPeriod,
		probabilities:    probabilities,
		rng:              rng,
	}
}

// Run rolls for faults every checkPeriod until ctx is cancelled.
func (g *RandomFaultGenerator) Run(ctx context.Context) {
	fmt.Println("[RandomFaultGenerator] started")

	ticker := time.NewTicker(g.checkPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.tick()
		case <-ctx.Done():
			fmt.Println("[RandomFaultGenerator] stopped")
			return
		}
	}
}

func (g *RandomFaultGenerator) tick() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.electricalActive && g.rng.Float64() < g.probabilities.Electrical {
		g.injectElectrical(true)
		g.electricalActive = true
		fmt.Println("[RandomFaultGenerator] electrical fault generated, requires manual reset")
	}

	if !g.hydraulicActive && g.rng.Float64() < g.probabilities.Hydraulic {
		g.injectHydraulic(true)
		g.hydraulicActive = true
		fmt.Println("[RandomFaultGenerator] hydraulic fault generated, requires manual reset")
	}
}

// ClearAllFaults clears any fault this generator currently has active,
// invoked when an operator issues RESET_FAULT.
func (g *RandomFaultGenerator) ClearAllFaults() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.electricalActive {
		g.injectElectrical(false)
		g.electricalActive = false
		fmt.Println("[RandomFaultGenerator] electrical fault cleared")
	}

	if g.hydraulicActive {
		g.injectHydraulic(false)
		g.hydraulicActive = false
		fmt.Println("[RandomFaultGenerator] hydraulic fault cleared")
	}
}
