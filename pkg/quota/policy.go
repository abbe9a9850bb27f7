package quota

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/quotaguard/handler"
)

// Policies maps a policy name to the rules stacked on the routes using it.
//
//	policies:
//	  data_refresh:
//	    - event: fetch_data
//	      max_calls: 100
//	      window_hours: 24
//	  usage_demo:
//	    - event: fetch_data
//	      max_calls: 10
//	      window_hours: 24
//	    - event: update_data
//	      max_calls: 3
//	      window_hours: 24
type Policies map[string][]Rule

type policyFile struct {
	Policies Policies `yaml:"policies"`
}

// LoadPolicies decodes and validates a YAML policy document.
func LoadPolicies(r io.Reader) (Policies, error) {
	var f policyFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrPolicyFile, err)
	}

	for name, rules := range f.Policies {
		if len(rules) == 0 {
			return nil, fmt.Errorf("%w: policy %q has no rules", ErrInvalidRule, name)
		}
		for i, rule := range rules {
			if err := rule.Validate(); err != nil {
				return nil, fmt.Errorf("policy %q rule %d: %w", name, i, err)
			}
		}
	}
	if f.Policies == nil {
		f.Policies = Policies{}
	}
	return f.Policies, nil
}

// LoadPolicyFile reads policies from path.
func LoadPolicyFile(path string) (Policies, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrPolicyFile, err)
	}
	defer f.Close()
	return LoadPolicies(f)
}

// Merge returns p with every policy of other added, other winning on name clashes.
func (p Policies) Merge(other Policies) Policies {
	out := make(Policies, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Decorators builds one limiter per rule of the named policy, in file order,
// so the first rule is the outermost check.
func Decorators[C handler.Context, R any](p Policies, name string, ledger Ledger, opts ...Option) ([]handler.Decorator[C, R], error) {
	rules, ok := p[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, name)
	}
	out := make([]handler.Decorator[C, R], 0, len(rules))
	for _, rule := range rules {
		out = append(out, Limit[C, R](ledger, rule, opts...))
	}
	return out, nil
}
