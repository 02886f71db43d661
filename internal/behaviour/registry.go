package behaviour

import (
	"fmt"
	"slices"
	"sync"
)

type ScriptConstructor func() Component

var (
	registryMu sync.RWMutex
	registry   = map[string]ScriptConstructor{}
)

// RegisterScript makes a component constructible by name, replacing any
// earlier registration.
func RegisterScript(name string, constructor ScriptConstructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = constructor
}

// Scripts lists the registered names in order.
func Scripts() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func Create(name string) (Component, error) {
	registryMu.RLock()
	constructor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown script %q", name)
	}
	return constructor(), nil
}
