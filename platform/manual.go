package platform

import (
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
)

// Manual is a controllable implementation of every signal, used by tests
// and the headless bench. Callbacks run synchronously on the goroutine that
// changes the state.
type Manual struct {
	mu        sync.Mutex
	visible   bool
	battery   BatteryStatus
	reduce    bool
	nextID    int
	visSubs   map[int]func(bool)
	memSubs   map[int]func(Pressure)
	batSubs   map[int]func(BatteryStatus)
	vibration []time.Duration
	observed  int
}

// NewManual returns a Manual reporting a visible element, a full battery and
// motion allowed.
func NewManual() *Manual {
	return &Manual{
		visible: true,
		battery: BatteryStatus{Level: 1, Charging: true},
		visSubs: make(map[int]func(bool)),
		memSubs: make(map[int]func(Pressure)),
		batSubs: make(map[int]func(BatteryStatus)),
	}
}

// Signals returns a Signals bundle backed entirely by m.
func (m *Manual) Signals() Signals {
	return Signals{Visibility: m, Memory: m, Battery: m, Haptics: m, Preferences: m}
}

// Observe implements VisibilityObserver.
func (m *Manual) Observe(_ Element, onChange func(bool)) func() {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.visSubs[id] = onChange
	m.observed++
	visible := m.visible
	m.mu.Unlock()

	onChange(visible)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.visSubs, id)
			m.observed--
			m.mu.Unlock()
		})
	}
}

// Observers returns the number of active visibility subscriptions.
func (m *Manual) Observers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.observed
}

// SetVisible changes visibility and notifies observers on change.
func (m *Manual) SetVisible(v bool) {
	m.mu.Lock()
	if m.visible == v {
		m.mu.Unlock()
		return
	}
	m.visible = v
	subs := snapshot(m.visSubs)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(v)
	}
}

// OnPressure implements MemoryPressureSource.
func (m *Manual) OnPressure(onPressure func(Pressure)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.memSubs[id] = onPressure
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.memSubs, id)
	}
}

// TriggerPressure delivers p to every memory-pressure subscriber.
func (m *Manual) TriggerPressure(p Pressure) {
	m.mu.Lock()
	subs := snapshot(m.memSubs)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(p)
	}
}

// Status implements Battery.
func (m *Manual) Status() BatteryStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.battery
}

// OnChange implements Battery.
func (m *Manual) OnChange(onChange func(BatteryStatus)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.batSubs[id] = onChange
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.batSubs, id)
	}
}

// SetBattery changes the battery reading and notifies listeners.
func (m *Manual) SetBattery(s BatteryStatus) {
	m.mu.Lock()
	m.battery = s
	subs := snapshot(m.batSubs)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

// Vibrate implements Haptics and records the request.
func (m *Manual) Vibrate(d time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vibration = append(m.vibration, d)
	return true
}

// Vibrations returns every recorded vibration request.
func (m *Manual) Vibrations() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.vibration...)
}

// SetReduceMotion changes the reduced-motion preference.
func (m *Manual) SetReduceMotion(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reduce = v
}

// ReduceMotion implements gpucontext.PlatformProvider.
func (m *Manual) ReduceMotion() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reduce
}

func (m *Manual) ClipboardRead() (string, error) { return "", nil }
func (m *Manual) ClipboardWrite(string) error { return nil }
func (m *Manual) SetCursor(gpucontext.CursorShape) {}
func (m *Manual) DarkMode() bool { return false }
func (m *Manual) HighContrast() bool { return false }
func (m *Manual) FontScale() float32 { return 1 }
func (m *Manual) SubpixelLayout() gpucontext.SubpixelLayout { return gpucontext.SubpixelNone }

func snapshot[T any](subs map[int]T) []T {
	out := make([]T, 0, len(subs))
	for _, fn := range subs {
		out = append(out, fn)
	}
	return out
}

var _ gpucontext.PlatformProvider = (*Manual)(nil)
