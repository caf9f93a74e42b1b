package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// contentionRate is the sampling rate for mutex and block profiles
const contentionRate = 5

type ProfilerConfig struct {
	Enabled         bool
	ServerAddress   string // http://pyroscope:4040
	ApplicationName string
	// Contention adds mutex and block profiles. Approval recording spends
	// its time waiting on row locks, so this is where that shows up.
	Contention bool
	Tags       map[string]string
}

func (c ProfilerConfig) validate() error {
	switch {
	case c.ServerAddress == "":
		return errors.New("profiling enabled without a server address")
	case c.ApplicationName == "":
		return errors.New("profiling enabled without an application name")
	}
	return nil
}

// Profiler pushes continuous profiles to Pyroscope
type Profiler struct {
	lifecycle
	running bool
}

func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{lifecycle: newLifecycle("profiles", logger)}
	if !cfg.Enabled {
		return p, nil
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Contention {
		runtime.SetMutexProfileFraction(contentionRate)
		runtime.SetBlockProfileRate(contentionRate)
	}
	types := profileTypes(cfg.Contention)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Logger:          pyroscopeLogger{p.logger.Named("pyroscope").Sugar()},
		Tags:            profileTags(cfg.Tags),
		ProfileTypes:    types,
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}

	var once sync.Once
	p.stop = func(context.Context) error {
		var err error
		once.Do(func() { err = profiler.Stop() })
		return err
	}
	p.running = true

	p.logger.Info("profiling enabled",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
		zap.Bool("contention", cfg.Contention),
	)
	return p, nil
}

func (p *Profiler) IsEnabled() bool { return p.running }

// profileTags copies extra and adds the pod hostname when there is one
func profileTags(extra map[string]string) map[string]string {
	tags := make(map[string]string, len(extra)+1)
	for k, v := range extra {
		tags[k] = v
	}
	if host := os.Getenv("HOSTNAME"); host != "" {
		tags["hostname"] = host
	}
	return tags
}

func profileTypes(contention bool) []pyroscope.ProfileType {
	types := []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileAllocObjects,
		pyroscope.ProfileAllocSpace,
		pyroscope.ProfileInuseObjects,
		pyroscope.ProfileInuseSpace,
		pyroscope.ProfileGoroutines,
	}
	if !contention {
		return types
	}
	return append(types,
		pyroscope.ProfileMutexCount,
		pyroscope.ProfileMutexDuration,
		pyroscope.ProfileBlockCount,
		pyroscope.ProfileBlockDuration,
	)
}

type pyroscopeLogger struct {
	*zap.SugaredLogger
}
