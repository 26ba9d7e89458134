package members

import (
	"fmt"
	"plugin"

	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/registry"
)

// ModuleRegistry is the compile-time registry of custom agent
// implementations addressable by agent_module — the Go analogue of
// Python's importlib.import_module lookup. Packages that ship a custom
// Member Agent register themselves here under their module name in
// init(), the same way internal/members/plain etc. register under their
// agent_type in members.Registry. This registry is intentionally
// separate from members.Registry: agent_type "custom" never resolves
// through members.Registry itself (spec.md §9 forbids globally
// registering a loaded custom type).
var ModuleRegistry = registry.New[func(registry.Config) (Agent, error)]("custom_members")

// LoadCustom resolves one custom Member Agent descriptor. It tries
// desc.AgentModule first (a name in ModuleRegistry); on any lookup failure
// it falls back to desc.Path, loading a real Go plugin (.so) and looking
// up the exported desc.AgentClass symbol, expected to have the signature
// `func(registry.Config) (members.Agent, error)`. Both failing surfaces a
// single error naming the path-based attempt, per spec.md §4.5/§9 ("more
// diagnosable"). The constructed Agent is returned directly and never
// inserted into any package registry, so two teams' custom agents of the
// same agent_class can never collide.
func LoadCustom(desc model.PluginDescriptor, cfg registry.Config) (Agent, error) {
	if desc.AgentModule != "" {
		if ctor, ok := ModuleRegistry.Get(desc.AgentModule); ok {
			agent, err := ctor(cfg)
			if err == nil {
				return agent, nil
			}
			if desc.Path == "" {
				return nil, fmt.Errorf("%w: custom agent module %q: %v", model.ErrPluginLoad, desc.AgentModule, err)
			}
			// fall through to the path-based attempt
		}
	}

	if desc.Path == "" {
		return nil, fmt.Errorf("%w: custom agent: neither agent_module %q nor a fallback path resolved", model.ErrPluginLoad, desc.AgentModule)
	}
	if desc.AgentClass == "" {
		return nil, fmt.Errorf("%w: custom agent at %s: agent_class is required", model.ErrPluginLoad, desc.Path)
	}

	p, err := plugin.Open(desc.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: custom agent at %s: %v", model.ErrPluginLoad, desc.Path, err)
	}
	sym, err := p.Lookup(desc.AgentClass)
	if err != nil {
		return nil, fmt.Errorf("%w: custom agent at %s: class %s not found: %v", model.ErrPluginLoad, desc.Path, desc.AgentClass, err)
	}
	ctor, ok := sym.(func(registry.Config) (Agent, error))
	if !ok {
		return nil, fmt.Errorf("%w: custom agent at %s: class %s is not a Member Agent constructor", model.ErrPluginLoad, desc.Path, desc.AgentClass)
	}
	return ctor(cfg)
}
