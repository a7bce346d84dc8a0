package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// SuperUser is the identity the generation pipeline runs as.
const SuperUser = "super-user"

// AppConfig lists the remote apps a user may call.
type AppConfig struct {
	AppIDs []string `yaml:"app_ids" json:"app_ids"`
}

// Registry maps user ids to their app configuration. It is safe for
// concurrent use; the service updates it while runs read it.
type Registry struct {
	mu    sync.RWMutex
	users map[string]AppConfig
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{users: map[string]AppConfig{}}
}

// LoadRegistry reads a YAML file of the form:
//
//	super-user:
//	  app_ids:
//	    - <text-to-image app>
//	    - <image-to-3d app>
//
// A missing file yields an empty registry.
func LoadRegistry(path string) (*Registry, error) {
	r := NewRegistry()
	if path == "" {
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read apps config: %w", err)
	}

	var users map[string]AppConfig
	if err := yaml.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse apps config: %w", err)
	}
	r.Apply(users)
	return r, nil
}

// Set replaces the configuration of one user.
func (r *Registry) Set(uid string, c AppConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[uid] = AppConfig{AppIDs: slices.Clone(c.AppIDs)}
}

// Apply merges a batch of user configurations.
func (r *Registry) Apply(users map[string]AppConfig) {
	for uid, c := range users {
		r.Set(uid, c)
	}
}

// Get returns the configuration of uid.
func (r *Registry) Get(uid string) (AppConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.users[uid]
	if !ok {
		return AppConfig{}, false
	}
	return AppConfig{AppIDs: slices.Clone(c.AppIDs)}, true
}

// Users returns the configured user ids, sorted.
func (r *Registry) Users() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.users))
}
