package appforge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk YAML description of an application's resource set.
//
//	app: blog
//	resources:
//	  - name: post
//	    attributes:
//	      - {name: title, kind: text}
//	      - {name: published, kind: boolean}
type Manifest struct {
	App       string             `yaml:"app"`
	Resources []ManifestResource `yaml:"resources"`
}

// ManifestResource is one resource entry of a Manifest.
type ManifestResource struct {
	Name       string              `yaml:"name"`
	Attributes []ManifestAttribute `yaml:"attributes,omitempty"`
}

// ManifestAttribute is one attribute entry of a ManifestResource.
type ManifestAttribute struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// LoadManifest reads and decodes a resource manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("appforge: reading manifest %q: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(buf, &m); err != nil {
		return nil, fmt.Errorf("appforge: decoding manifest %q: %w", path, err)
	}
	return &m, nil
}

// Descriptors converts the manifest entries into validated resource
// descriptors, preserving declaration order.
func (m *Manifest) Descriptors() ([]ResourceDescriptor, error) {
	out := make([]ResourceDescriptor, 0, len(m.Resources))
	for _, res := range m.Resources {
		r := ResourceDescriptor{Name: res.Name}
		for _, a := range res.Attributes {
			kind, err := ParseFieldKind(a.Kind)
			if err != nil {
				return nil, fmt.Errorf("appforge: resource %q: %w", res.Name, err)
			}
			r.Attributes = append(r.Attributes, Attribute{Name: a.Name, Kind: kind})
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
