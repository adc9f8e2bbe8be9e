package plan

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type yamlCatalog struct {
	path string
}

// NewYAMLCatalog returns a Catalog that reads plans from a YAML file
// holding a list of plan entries:
//
//	# plans.yaml
//	- slug: basic
//	  name: Basic
//	  features:
//	    products: true
//	  limits:
//	    maxUsers: 5
//	    maxOrders: 100
//	- slug: pro
//	  name: Pro
//	  features:
//	    products: true
//	    agents: true
//	  limits:
//	    maxUsers: 25
//	    maxOrders: -1
//
// Operators edit this file to reprice tiers without a deploy; the platform
// validates it at startup via Validate.
func NewYAMLCatalog(path string) Catalog {
	return &yamlCatalog{path: path}
}

func (c *yamlCatalog) Load(_ context.Context) (map[string]Plan, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	var plans []Plan
	if err := yaml.Unmarshal(data, &plans); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, fmt.Errorf("parse %s: %w", c.path, err))
	}

	bySlug := make(map[string]Plan, len(plans))
	for _, p := range plans {
		bySlug[p.Slug] = p
	}
	return bySlug, nil
}
