package gc

import (
	"github.com/sirupsen/logrus"

	"github.com/gibbon-lang/gibbon-rts/gc/metrics"
)

// Runtime bundles the info table, nursery, and the two shadow stacks
// that together make up the collector's process-wide state. The
// original runtime keeps these as process globals; here they are
// threaded through an explicit value instead, so more than one
// instance can exist side by side in a process.
type Runtime struct {
	Info   *InfoTable
	Nurs   *Nursery
	Reads  *ShadowStack
	Writes *ShadowStack
	Config Config

	Log     *logrus.Entry
	Metrics *metrics.Collector
}

// NewRuntime builds a Runtime with a heap-backed nursery (NewHeap) sized
// per cfg. Assign the Nurs field to swap in an mmap-backed arena
// (NewMapped) once it has been reserved by the bootstrap.
func NewRuntime(cfg Config) (*Runtime, error) {
	info := NewInfoTable()
	if err := info.Initialize(); err != nil {
		return nil, err
	}
	rt := &Runtime{
		Info:   info,
		Nurs:   NewHeap(cfg.NurseryBytes, cfg.ChunkBytes),
		Reads:  NewShadowStack(cfg.ShadowStackFrames),
		Writes: NewShadowStack(cfg.ShadowStackFrames),
		Config: cfg,
		Log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	return rt, nil
}

// SetLogger overrides the runtime's diagnostic logger, the way a host
// application typically injects its own *logrus.Entry with request- or
// component-scoped fields rather than relying on the package standard
// logger.
func (rt *Runtime) SetLogger(log *logrus.Entry) { rt.Log = log }

// SetMetrics attaches a metrics collector; nil (the default) disables
// instrumentation.
func (rt *Runtime) SetMetrics(m *metrics.Collector) { rt.Metrics = m }

// Close releases the runtime's nursery backing memory.
func (rt *Runtime) Close() error {
	return rt.Nurs.Close()
}
