package logger

import (
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// LoggerContainer hands out one logger per pipeline component, all derived
// from the same base config. When file output is configured each component
// writes to its own <name>.log inside the configured directory.
type LoggerContainer struct {
	lock sync.Mutex

	loggers map[string]hclog.Logger
	config  LoggerConfig
}

func NewLoggerContainer(config LoggerConfig) *LoggerContainer {
	return &LoggerContainer{
		loggers: map[string]hclog.Logger{},
		config:  config,
	}
}

// GetLogger returns the named component logger, creating it on first use.
// Repeated calls with the same name return the same instance.
func (c *LoggerContainer) GetLogger(name string) (hclog.Logger, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if logger, exists := c.loggers[name]; exists {
		return logger, nil
	}

	componentConfig := c.config
	componentConfig.Name = name

	if componentConfig.LogFilePath != "" {
		componentConfig.LogFilePath = filepath.Join(componentConfig.LogFilePath, name)
	}

	logger, err := NewLogger(componentConfig)
	if err != nil {
		return nil, err
	}

	c.loggers[name] = logger

	return logger, nil
}
