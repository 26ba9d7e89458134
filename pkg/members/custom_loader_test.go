package members

import (
	"context"
	"errors"
	"testing"

	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/registry"
)

func TestLoadCustomViaModuleRegistry(t *testing.T) {
	ModuleRegistry.Register("test-module-ok", func(cfg registry.Config) (Agent, error) {
		return fakeMemberAgentForLoader{name: "loaded"}, nil
	})

	agent, err := LoadCustom(model.PluginDescriptor{AgentModule: "test-module-ok"}, registry.Config{})
	if err != nil {
		t.Fatalf("LoadCustom returned error: %v", err)
	}
	if agent.Name() != "loaded" {
		t.Errorf("Name() = %q, want loaded", agent.Name())
	}
}

func TestLoadCustomModuleFailsNoPathErrors(t *testing.T) {
	ModuleRegistry.Register("test-module-fails", func(cfg registry.Config) (Agent, error) {
		return nil, errors.New("construction failed")
	})

	_, err := LoadCustom(model.PluginDescriptor{AgentModule: "test-module-fails"}, registry.Config{})
	if err == nil {
		t.Fatal("expected an error when the module constructor fails and there is no path fallback")
	}
}

func TestLoadCustomNoModuleNoPathErrors(t *testing.T) {
	_, err := LoadCustom(model.PluginDescriptor{}, registry.Config{})
	if err == nil {
		t.Fatal("expected an error when neither agent_module nor path is set")
	}
	if !errors.Is(err, model.ErrPluginLoad) {
		t.Errorf("expected ErrPluginLoad, got %v", err)
	}
}

func TestLoadCustomPathNoAgentClassErrors(t *testing.T) {
	_, err := LoadCustom(model.PluginDescriptor{Path: "/tmp/does-not-matter.so"}, registry.Config{})
	if err == nil {
		t.Fatal("expected an error when Path is set without AgentClass")
	}
	if !errors.Is(err, model.ErrPluginLoad) {
		t.Errorf("expected ErrPluginLoad, got %v", err)
	}
}

func TestLoadCustomBadPluginPathErrors(t *testing.T) {
	_, err := LoadCustom(model.PluginDescriptor{Path: "/no/such/plugin.so", AgentClass: "New"}, registry.Config{})
	if err == nil {
		t.Fatal("expected an error when the plugin path cannot be opened")
	}
	if !errors.Is(err, model.ErrPluginLoad) {
		t.Errorf("expected ErrPluginLoad, got %v", err)
	}
}

type fakeMemberAgentForLoader struct{ name string }

func (a fakeMemberAgentForLoader) Name() string          { return a.name }
func (a fakeMemberAgentForLoader) Type() model.AgentType { return model.AgentCustom }
func (a fakeMemberAgentForLoader) Description() string   { return "fake custom agent for loader tests" }
func (a fakeMemberAgentForLoader) Execute(_ context.Context, _ string, _ map[string]string) model.MemberAgentResult {
	return model.MemberAgentResult{}
}
