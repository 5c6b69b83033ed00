// Package facts provides a YAML-backed sample implementation of
// runtime.FactSource (spec §1 "YAML/Facter-based fact providers" as an
// external collaborator the core consumes via an interface). The core
// itself never parses YAML or touches the filesystem for facts; this
// package exists so the evaluator's root scope has something concrete to
// read from.
package facts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/puppetlabs/puppetlang/internal/values"
)

// Provider is a runtime.FactSource backed by two in-memory maps, typically
// loaded from YAML documents (a facts document and a trusted-data
// document).
type Provider struct {
	facts   map[string]values.Value
	trusted map[string]values.Value
}

// New returns a Provider with no facts or trusted data set.
func New() *Provider {
	return &Provider{facts: map[string]values.Value{}, trusted: map[string]values.Value{}}
}

// Facts implements runtime.FactSource.
func (p *Provider) Facts() map[string]values.Value { return p.facts }

// Trusted implements runtime.FactSource.
func (p *Provider) Trusted() map[string]values.Value { return p.trusted }

// LoadFactsFile parses a YAML document at path into the flat fact map,
// replacing any facts previously loaded.
func (p *Provider) LoadFactsFile(path string) error {
	m, err := loadYAMLFile(path)
	if err != nil {
		return fmt.Errorf("loading facts from %s: %w", path, err)
	}
	p.facts = m
	return nil
}

// LoadTrustedFile parses a YAML document at path into the trusted-data
// map, replacing any trusted data previously loaded.
func (p *Provider) LoadTrustedFile(path string) error {
	m, err := loadYAMLFile(path)
	if err != nil {
		return fmt.Errorf("loading trusted data from %s: %w", path, err)
	}
	p.trusted = m
	return nil
}

// LoadFactsYAML parses a YAML document from raw bytes into the flat fact
// map, replacing any facts previously loaded. Useful for embedding hosts
// that already hold fact data in memory.
func (p *Provider) LoadFactsYAML(data []byte) error {
	m, err := decodeYAML(data)
	if err != nil {
		return fmt.Errorf("decoding facts: %w", err)
	}
	p.facts = m
	return nil
}

// SetFact sets or overrides a single flat fact, for hosts that want to
// inject a handful of values without a YAML document (e.g. tests).
func (p *Provider) SetFact(name string, v values.Value) {
	p.facts[name] = v
}

// SetTrusted sets or overrides a single entry of the trusted-data hash.
func (p *Provider) SetTrusted(name string, v values.Value) {
	p.trusted[name] = v
}

func loadYAMLFile(path string) (map[string]values.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeYAML(data)
}

func decodeYAML(data []byte) (map[string]values.Value, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]values.Value, len(raw))
	for k, v := range raw {
		out[k] = fromYAML(v)
	}
	return out, nil
}

// fromYAML converts a decoded YAML scalar/sequence/mapping into the
// evaluator's value representation (spec §3 "Value").
func fromYAML(v interface{}) values.Value {
	switch t := v.(type) {
	case nil:
		return values.Undef{}
	case bool:
		return values.Bool(t)
	case int:
		return values.Int(int64(t))
	case int64:
		return values.Int(t)
	case uint64:
		return values.Int(int64(t))
	case float64:
		return values.Float(t)
	case string:
		return values.Str(t)
	case []interface{}:
		elems := make([]values.Value, len(t))
		for i, e := range t {
			elems[i] = fromYAML(e)
		}
		return &values.Array{Elements: elems}
	case map[string]interface{}:
		pairs := make([]values.HashPair, 0, len(t))
		for k, e := range t {
			pairs = append(pairs, values.HashPair{Key: values.Str(k), Value: fromYAML(e)})
		}
		return &values.Hash{Pairs: pairs}
	case map[interface{}]interface{}:
		pairs := make([]values.HashPair, 0, len(t))
		for k, e := range t {
			pairs = append(pairs, values.HashPair{Key: fromYAML(k), Value: fromYAML(e)})
		}
		return &values.Hash{Pairs: pairs}
	default:
		return values.Str(fmt.Sprintf("%v", t))
	}
}
