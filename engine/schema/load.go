package schema

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/omniql-engine/omnifilter/mapping"
)

// Entities are declared as lists since viper folds map keys to lower case
// and attribute names are camelCase:
//
//	entities:
//	  - name: User
//	    table: users
//	    attributes:
//	      - {name: birthDate, type: DATE}
//	      - {name: profile, ref: Profile}
type attributeConfig struct {
	Name   string `mapstructure:"name"`
	Type   string `mapstructure:"type"`
	Ref    string `mapstructure:"ref"`
	Column string `mapstructure:"column"`

	JoinColumn string `mapstructure:"join_column"`
	RefColumn  string `mapstructure:"ref_column"`
}

type entityConfig struct {
	Name       string            `mapstructure:"name"`
	Table      string            `mapstructure:"table"`
	Attributes []attributeConfig `mapstructure:"attributes"`
}

type fileConfig struct {
	Entities []entityConfig `mapstructure:"entities"`
}

// LoadFile reads a schema file (YAML, JSON or TOML, by extension).
func LoadFile(path string) (*Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}
	return FromViper(v)
}

// FromViper builds a registry from the "entities" key of v.
func FromViper(v *viper.Viper) (*Registry, error) {
	var cfg fileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}

	reg := NewRegistry()
	for _, ec := range cfg.Entities {
		if ec.Name == "" {
			return nil, fmt.Errorf("entity without name")
		}
		e := NewEntity(ec.Name)
		if ec.Table != "" {
			e.Table = ec.Table
		}
		for _, ac := range ec.Attributes {
			switch {
			case ac.Name == "":
				return nil, fmt.Errorf("entity %s: attribute without name", ec.Name)
			case ac.Ref != "":
				e.Ref(ac.Name, ac.Ref)
			default:
				kind, ok := mapping.ParseKind(ac.Type)
				if !ok || kind == mapping.KindEntity {
					return nil, fmt.Errorf("entity %s attribute %s: unknown type %q", ec.Name, ac.Name, ac.Type)
				}
				e.Attr(ac.Name, kind)
			}
			a := e.Attributes[ac.Name]
			if ac.Column != "" {
				a.Column = ac.Column
			}
			if ac.Ref != "" && ac.JoinColumn != "" {
				a.JoinColumn = ac.JoinColumn
			}
			if ac.Ref != "" && ac.RefColumn != "" {
				a.RefColumn = ac.RefColumn
			}
			e.Attributes[ac.Name] = a
		}
		reg.Register(e)
	}

	for _, name := range reg.Names() {
		e, _ := reg.Entity(name)
		for _, a := range e.Attributes {
			if a.Kind != mapping.KindEntity {
				continue
			}
			if _, err := reg.Entity(a.Ref); err != nil {
				return nil, fmt.Errorf("entity %s attribute %s: %w", name, a.Name, err)
			}
		}
	}
	return reg, nil
}
