//go:build !amd64

package device

import (
	"image"
)

// simulationWindow is only available on desktop builds
type simulationWindow struct{}

func (s *simulationWindow) startSimulation(width, height int, lastImg func() image.Image) {
}

func (s *simulationWindow) invalidateSimulationWindow() {
}

func (s *simulationWindow) closeSimulationWindow() {
}
