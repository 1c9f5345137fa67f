package device

import (
	"errors"
	"fmt"
	"github.com/jypelle/ledtune/internal/srv/compose"
	"github.com/jypelle/ledtune/internal/srv/config"
	"github.com/sirupsen/logrus"
	"sync"
)

var errMatrixNotAcquired = errors.New("matrix not acquired")

// matrixDriver writes whole frames to a physical (or simulated) panel
type matrixDriver interface {
	Open() error
	Write(frame *compose.FrameBuffer) error
	Close() error
}

// Matrix is the single owner of the output panel
type Matrix struct {
	lock      sync.Mutex
	driver    matrixDriver
	owner     *OwnerLock
	acquired  bool
	on        bool
	lastFrame *compose.FrameBuffer
	blank     *compose.FrameBuffer
}

func NewMatrix(serverConfig *config.ServerConfig) (*Matrix, error) {
	order, err := compose.ParseColorOrder(serverConfig.Matrix.ColorOrder)
	if err != nil {
		return nil, err
	}

	var driver matrixDriver
	switch serverConfig.Matrix.Driver {
	case config.DriverHub75:
		driver = newHub75Driver(serverConfig.Matrix.Hub75, serverConfig.Matrix.Width, serverConfig.Matrix.Height)
	case config.DriverApa102:
		driver = newApa102Driver(serverConfig.Matrix.SpiPort, serverConfig.Matrix.Width, serverConfig.Matrix.Height, serverConfig.Matrix.Brightness)
	case config.DriverSsd1306:
		driver = newSsd1306Driver(serverConfig.Matrix.I2cBus)
	case config.DriverSim:
		driver = newSimDriver(serverConfig.SimulationMode, serverConfig.Matrix.Width, serverConfig.Matrix.Height)
	default:
		return nil, fmt.Errorf("unknown matrix driver: %s", serverConfig.Matrix.Driver)
	}

	var owner *OwnerLock
	if serverConfig.Matrix.LockFile != "" {
		owner = NewOwnerLock(serverConfig.Matrix.LockFile)
	}

	return newMatrix(driver, owner, serverConfig.Matrix.Width, serverConfig.Matrix.Height, order, serverConfig.DisplayOn()), nil
}

func newMatrix(driver matrixDriver, owner *OwnerLock, width, height int, order compose.ColorOrder, on bool) *Matrix {
	return &Matrix{
		driver: driver,
		owner:  owner,
		on:     on,
		blank:  compose.NewFrameBuffer(width, height, order),
	}
}

func (m *Matrix) Acquire() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.acquired {
		return nil
	}
	logrus.Infof("Acquire matrix")
	if m.owner != nil {
		if err := m.owner.Lock(); err != nil {
			return err
		}
	}
	if err := m.driver.Open(); err != nil {
		if m.owner != nil {
			m.owner.Unlock()
		}
		return err
	}
	m.acquired = true
	return nil
}

func (m *Matrix) Push(frame *compose.FrameBuffer) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.acquired {
		return errMatrixNotAcquired
	}
	m.lastFrame = frame
	if !m.on {
		return m.driver.Write(m.blank)
	}
	return m.driver.Write(frame)
}

func (m *Matrix) Release() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.acquired {
		return nil
	}
	logrus.Infof("Release matrix")
	m.acquired = false
	if err := m.driver.Write(m.blank); err != nil {
		logrus.Warnf("Unable to blank matrix: %v", err)
	}
	err := m.driver.Close()
	if m.owner != nil {
		if unlockErr := m.owner.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

// Switch toggles the panel and returns the new state
func (m *Matrix) Switch() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.on = !m.on
	return m.on
}

func (m *Matrix) IsOn() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.on
}

// LastFrame returns the last frame handed to Push, nil before the first one
func (m *Matrix) LastFrame() *compose.FrameBuffer {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.lastFrame
}
