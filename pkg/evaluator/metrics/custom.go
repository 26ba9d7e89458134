package metrics

import (
	"fmt"
	"plugin"

	"github.com/mixseek/mixseek-core/pkg/evaluator"
	"github.com/mixseek/mixseek-core/pkg/llm"
	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/promptbuilder"
	"github.com/mixseek/mixseek-core/pkg/registry"
)

// Resolve looks up a metric by its configured class name. Built-in and
// previously-registered custom names resolve through Registry (the Go
// analogue of Python's static metric map plus module-based dynamic
// loading). If name is absent from Registry and pluginPath is non-empty,
// Resolve falls back to loading a real Go plugin (.so) at pluginPath that
// exports `New(llm.Client, *promptbuilder.Builder) (evaluator.Metric,
// error)` — the filesystem-path fallback named in spec.md §4.3. The loaded
// metric is returned directly and is never inserted into Registry, so one
// execution's custom metric can never shadow another's.
func Resolve(name, pluginPath string, client llm.Client, builder *promptbuilder.Builder) (evaluator.Metric, error) {
	factory, err := Registry.Create(name, registry.Config{})
	if err == nil {
		return factory(client, builder)
	}

	if pluginPath == "" {
		return nil, fmt.Errorf("%w: class not found: %s (available: %v)", model.ErrEvaluator, name, List())
	}
	return loadPluginMetric(pluginPath, client, builder)
}

func loadPluginMetric(path string, client llm.Client, builder *promptbuilder.Builder) (evaluator.Metric, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: metric plugin %s: %v", model.ErrPluginLoad, path, err)
	}
	sym, err := p.Lookup("New")
	if err != nil {
		return nil, fmt.Errorf("%w: metric plugin %s: missing New symbol: %v", model.ErrPluginLoad, path, err)
	}
	ctor, ok := sym.(func(llm.Client, *promptbuilder.Builder) (evaluator.Metric, error))
	if !ok {
		return nil, fmt.Errorf("%w: metric plugin %s: New has the wrong signature", model.ErrPluginLoad, path)
	}
	return ctor(client, builder)
}
