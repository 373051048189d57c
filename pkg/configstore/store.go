// Package configstore persists feeder configs across restarts.
package configstore

import (
	"errors"
	"sync"

	"github.com/robotalks/pnpfeeder/pkg/feeder"
	"github.com/robotalks/pnpfeeder/pkg/gcode"
)

var (
	// ErrConfigGet indicates a stored config can't be read.
	ErrConfigGet = errors.New("config get error")
	// ErrConfigSet indicates a config can't be stored.
	ErrConfigSet = errors.New("config set error")
)

// Store loads and saves feeder configs by feeder index.
// Get returns DefaultConfig when nothing is stored for the index.
type Store interface {
	Get(index int) (feeder.Config, error)
	Set(index int, config feeder.Config) error
}

// DefaultConfig is the config of a feeder never configured.
func DefaultConfig() feeder.Config {
	config := feeder.DefaultConfig(feeder.PwmLimits{
		Zero:      gcode.MustParseValue("490.2"),
		OneEighty: gcode.MustParseValue("980.4"),
	})
	config.AlwaysRetract = true
	return config
}

// Memory is a Store keeping configs in memory.
type Memory struct {
	lock    sync.RWMutex
	configs map[int]feeder.Config
}

// NewMemory creates a Memory store.
func NewMemory() *Memory {
	return &Memory{configs: make(map[int]feeder.Config)}
}

// Get implements Store.
func (m *Memory) Get(index int) (feeder.Config, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if config, ok := m.configs[index]; ok {
		return config, nil
	}
	return DefaultConfig(), nil
}

// Set implements Store.
func (m *Memory) Set(index int, config feeder.Config) error {
	m.lock.Lock()
	m.configs[index] = config
	m.lock.Unlock()
	return nil
}
