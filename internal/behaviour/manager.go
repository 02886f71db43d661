package behaviour

import "Sketch3D/internal/scene"

// Manager runs the components of one sketch in attach order.
type Manager struct {
	items     []*attached
	toDestroy []Component
}

func NewManager() *Manager {
	return &Manager{}
}

// Attach binds c to n. Start is deferred to the next Update.
func (m *Manager) Attach(n *scene.Node, c Component) Component {
	m.items = append(m.items, &attached{node: n, comp: c, enabled: true})
	return c
}

// AttachScript creates the registered script name and attaches it to n.
func (m *Manager) AttachScript(n *scene.Node, name string) (Component, error) {
	c, err := Create(name)
	if err != nil {
		return nil, err
	}
	return m.Attach(n, c), nil
}

// Detach removes c at the start of the next Update.
func (m *Manager) Detach(c Component) {
	m.toDestroy = append(m.toDestroy, c)
}

// SetEnabled pauses or resumes c without detaching it.
func (m *Manager) SetEnabled(c Component, enabled bool) {
	for _, a := range m.items {
		if a.comp == c {
			a.enabled = enabled
		}
	}
}

// Components returns the components attached to n.
func (m *Manager) Components(n *scene.Node) []Component {
	var out []Component
	for _, a := range m.items {
		if a.node == n {
			out = append(out, a.comp)
		}
	}
	return out
}

func (m *Manager) Len() int { return len(m.items) }

// Update starts new components and updates every enabled one. Components on
// invisible nodes still run.
func (m *Manager) Update(dt float64) {
	if len(m.toDestroy) > 0 {
		for _, c := range m.toDestroy {
			m.remove(c)
		}
		m.toDestroy = m.toDestroy[:0]
	}
	// Components attached during this pass start next frame.
	items := m.items
	for _, a := range items {
		if !a.enabled {
			continue
		}
		if !a.started {
			a.started = true
			a.comp.Start(a.node)
		}
		a.comp.Update(a.node, dt)
	}
}

func (m *Manager) remove(c Component) {
	for i, a := range m.items {
		if a.comp == c {
			if d, ok := c.(Destroyer); ok {
				d.OnDestroy(a.node)
			}
			m.items = append(m.items[:i], m.items[i+1:]...)
			return
		}
	}
}

// Clear detaches everything immediately.
func (m *Manager) Clear() {
	for _, a := range m.items {
		if d, ok := a.comp.(Destroyer); ok {
			d.OnDestroy(a.node)
		}
	}
	m.items = m.items[:0]
	m.toDestroy = m.toDestroy[:0]
}
