package inputsvc

import (
	"context"
	"sort"
	"sync"

	"github.com/neuroplastio/plopp/internal/keys"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// Mux merges the key streams of a fixed set of devices into one feed, in arrival order.
// A device whose stream fails is closed and dropped; the remaining devices keep feeding.
// A Mux is not restartable: build a new one to pick up a different device set.
type Mux struct {
	log     *zap.Logger
	events  chan keys.Event
	sources *xsync.MapOf[string, Device]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMux(log *zap.Logger, devices []Device) *Mux {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Mux{
		log:     log,
		events:  make(chan keys.Event),
		sources: xsync.NewMapOf[string, Device](),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, dev := range devices {
		if _, loaded := m.sources.LoadOrStore(dev.ID(), dev); loaded {
			m.log.Warn("duplicate input device, closing", zap.String("device", dev.ID()))
			dev.Close()
			continue
		}
		m.wg.Add(1)
		go m.read(dev)
	}
	return m
}

func (m *Mux) read(dev Device) {
	defer m.wg.Done()
	for {
		ev, err := dev.ReadKey()
		if err != nil {
			if m.ctx.Err() == nil {
				m.log.Warn("input device stream failed, dropping it",
					zap.String("device", dev.ID()), zap.Error(err))
			}
			m.drop(dev.ID())
			return
		}
		select {
		case <-m.ctx.Done():
			return
		case m.events <- ev:
		}
	}
}

func (m *Mux) drop(id string) {
	dev, ok := m.sources.LoadAndDelete(id)
	if !ok {
		return
	}
	if err := dev.Close(); err != nil {
		m.log.Debug("failed to close input device", zap.String("device", id), zap.Error(err))
	}
}

// Events is the merged feed. It is never closed; stop selecting on it after Close.
func (m *Mux) Events() <-chan keys.Event {
	return m.events
}

// Sources returns the ids of the devices still feeding the merge.
func (m *Mux) Sources() []string {
	var ids []string
	m.sources.Range(func(id string, _ Device) bool {
		ids = append(ids, id)
		return true
	})
	sort.Strings(ids)
	return ids
}

func (m *Mux) Len() int {
	return m.sources.Size()
}

// Close stops every reader and closes every remaining device. Events not yet received are lost.
func (m *Mux) Close() {
	m.cancel()
	for _, id := range m.Sources() {
		m.drop(id)
	}
	m.wg.Wait()
}
