package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// Manager discovers plugins and dispatches hook events to them.
type Manager struct {
	pluginDir string
	executor  *Executor

	mu      sync.RWMutex
	plugins map[string]*Plugin
}

// NewManager creates a manager for pluginDir.
func NewManager(pluginDir string, executor *Executor) *Manager {
	return &Manager{
		pluginDir: pluginDir,
		executor:  executor,
		plugins:   make(map[string]*Plugin),
	}
}

// Discover loads every subdirectory of the plugin directory that holds a
// valid plugin.json. A missing directory yields no plugins.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plugins = make(map[string]*Plugin)

	entries, err := os.ReadDir(m.pluginDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(m.pluginDir, entry.Name())
		data, err := os.ReadFile(filepath.Join(dir, "plugin.json"))
		if err != nil {
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			log.Printf("Skipping plugin %s: %v", entry.Name(), err)
			continue
		}
		if manifest.Name == "" || manifest.Executable == "" {
			log.Printf("Skipping plugin %s: manifest needs a name and an executable", entry.Name())
			continue
		}

		m.plugins[manifest.Name] = &Plugin{
			Manifest:   manifest,
			Path:       dir,
			Executable: filepath.Join(dir, manifest.Executable),
		}
	}

	return nil
}

// Get returns a plugin by name.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}
	return plugin, nil
}

// List returns the discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, p := range m.plugins {
		plugins = append(plugins, p)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})
	return plugins
}

// Subscribers returns the plugins listening for event, sorted by name.
func (m *Manager) Subscribers(event string) []*Plugin {
	var out []*Plugin
	for _, p := range m.List() {
		if p.Manifest.Subscribes(event) {
			out = append(out, p)
		}
	}
	return out
}

// Dispatch runs every subscriber of req.Event in turn. Failures are logged
// and do not stop the remaining plugins; the number of successful runs is
// returned.
func (m *Manager) Dispatch(ctx context.Context, req Request) int {
	ok := 0
	for _, p := range m.Subscribers(req.Event) {
		r := req
		resp, err := m.executor.Execute(ctx, p, &r)
		if err != nil {
			log.Printf("Hook %s failed: %v", p.Manifest.Name, err)
			continue
		}
		if !resp.Success {
			log.Printf("Hook %s reported an error: %s", p.Manifest.Name, resp.Error)
			continue
		}
		ok++
	}
	return ok
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
