// Package facts loads the declarations resolution works on from a YAML
// document: classifiers, nested scopes with their callables, and the
// injection sites to resolve.
package facts

import (
	"fmt"
	"github.com/funvibe/givens/internal/config"
	"github.com/funvibe/givens/internal/symbols"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the top-level facts file.
type Document struct {
	Classifiers []ClassifierDecl `yaml:"classifiers"`
	Scopes      []ScopeDecl      `yaml:"scopes"`
	Sites       []SiteDecl       `yaml:"sites"`
}

type ClassifierDecl struct {
	// Key identifies the classifier; type expressions may use it or the
	// display name when that is unique.
	Key            string              `yaml:"key"`
	Name           string              `yaml:"name,omitempty"`
	TypeParameters []TypeParameterDecl `yaml:"type_parameters,omitempty"`
	SuperTypes     []string            `yaml:"supertypes,omitempty"`
	Tag            bool                `yaml:"tag,omitempty"`
	// Tags wrap the classifier's own type, e.g. "@app.Qualifier".
	Tags []string `yaml:"tags,omitempty"`
	// Members are admitted to any scope that admits a callable providing
	// this classifier.
	Members []CallableDecl `yaml:"members,omitempty"`
}

type TypeParameterDecl struct {
	Name     string   `yaml:"name"`
	Variance string   `yaml:"variance,omitempty"` // in, out or empty
	Bounds   []string `yaml:"bounds,omitempty"`
	Reified  bool     `yaml:"reified,omitempty"`
	Spread   bool     `yaml:"spread,omitempty"`
}

type ScopeDecl struct {
	Name           string              `yaml:"name"`
	Kind           string              `yaml:"kind,omitempty"`
	Parent         string              `yaml:"parent,omitempty"`
	Owner          string              `yaml:"owner,omitempty"`
	TypeParameters []TypeParameterDecl `yaml:"type_parameters,omitempty"`
	// Hidden names callables that requests from this scope may not use.
	Hidden    []string       `yaml:"hidden,omitempty"`
	Callables []CallableDecl `yaml:"callables,omitempty"`
}

type SiteDecl struct {
	Name     string        `yaml:"name"`
	Scope    string        `yaml:"scope"`
	Requests []RequestDecl `yaml:"requests"`
}

type RequestDecl struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Required *bool  `yaml:"required,omitempty"` // defaults to true
}

type CallableDecl struct {
	Name              string              `yaml:"name"`
	TypeParameters    []TypeParameterDecl `yaml:"type_parameters,omitempty"`
	Type              string              `yaml:"type"`
	Receiver          string              `yaml:"receiver,omitempty"`
	ExtensionReceiver string              `yaml:"extension_receiver,omitempty"`
	Parameters        []ParameterDecl     `yaml:"parameters,omitempty"`
	Visibility        string              `yaml:"visibility,omitempty"` // public or private
}

type ParameterDecl struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Inject  bool   `yaml:"inject,omitempty"`
	Default bool   `yaml:"default,omitempty"`
}

// ValidationError reports a problem at a path inside the document, such as
// "scopes[1].callables[0].type".
type ValidationError struct {
	File    string
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func invalid(path, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// LoadFile reads and parses a facts document.
func LoadFile(path string) (*Document, error) {
	if !IsFactsFile(path) {
		return nil, fmt.Errorf("%s: expected one of %s", path, strings.Join(config.FactsFileExtensions, ", "))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading facts %s: %w", path, err)
	}
	return Parse(data, path)
}

// IsFactsFile reports whether path has a facts document extension.
func IsFactsFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range config.FactsFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Parse decodes and validates a facts document. The path is used only for
// error messages.
func Parse(data []byte, path string) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := doc.validate(); err != nil {
		err.File = path
		return nil, err
	}
	return &doc, nil
}

// validate checks the structure of the document. Type expressions are
// checked when the document is compiled.
func (d *Document) validate() *ValidationError {
	keys := map[string]bool{}
	for i, c := range d.Classifiers {
		path := fmt.Sprintf("classifiers[%d]", i)
		if c.Key == "" {
			return invalid(path+".key", "key is required")
		}
		if keys[c.Key] {
			return invalid(path+".key", "duplicate classifier %q", c.Key)
		}
		keys[c.Key] = true
		if err := validateTypeParameters(path, c.TypeParameters); err != nil {
			return err
		}
		for j, m := range c.Members {
			if err := validateCallable(fmt.Sprintf("%s.members[%d]", path, j), m); err != nil {
				return err
			}
		}
	}

	scopes := map[string]bool{}
	for i, s := range d.Scopes {
		path := fmt.Sprintf("scopes[%d]", i)
		if s.Name == "" {
			return invalid(path+".name", "name is required")
		}
		if scopes[s.Name] {
			return invalid(path+".name", "duplicate scope %q", s.Name)
		}
		scopes[s.Name] = true
		if s.Kind != "" {
			if _, ok := symbols.ParseScopeKind(s.Kind); !ok {
				return invalid(path+".kind", "unknown scope kind %q", s.Kind)
			}
		}
		if err := validateTypeParameters(path, s.TypeParameters); err != nil {
			return err
		}
		for j, c := range s.Callables {
			if err := validateCallable(fmt.Sprintf("%s.callables[%d]", path, j), c); err != nil {
				return err
			}
		}
	}
	for i, s := range d.Scopes {
		if s.Parent != "" && !scopes[s.Parent] {
			return invalid(fmt.Sprintf("scopes[%d].parent", i), "unknown scope %q", s.Parent)
		}
	}

	sites := map[string]bool{}
	for i, s := range d.Sites {
		path := fmt.Sprintf("sites[%d]", i)
		if s.Name == "" {
			return invalid(path+".name", "name is required")
		}
		if sites[s.Name] {
			return invalid(path+".name", "duplicate site %q", s.Name)
		}
		sites[s.Name] = true
		if !scopes[s.Scope] {
			return invalid(path+".scope", "unknown scope %q", s.Scope)
		}
		for j, r := range s.Requests {
			rpath := fmt.Sprintf("%s.requests[%d]", path, j)
			if r.Name == "" {
				return invalid(rpath+".name", "name is required")
			}
			if r.Type == "" {
				return invalid(rpath+".type", "type is required")
			}
		}
	}
	return nil
}

func validateTypeParameters(path string, params []TypeParameterDecl) *ValidationError {
	names := map[string]bool{}
	for i, p := range params {
		ppath := fmt.Sprintf("%s.type_parameters[%d]", path, i)
		if p.Name == "" {
			return invalid(ppath+".name", "name is required")
		}
		if names[p.Name] {
			return invalid(ppath+".name", "duplicate type parameter %q", p.Name)
		}
		names[p.Name] = true
		if _, ok := parseVariance(p.Variance); !ok {
			return invalid(ppath+".variance", "variance must be in, out or empty; got %q", p.Variance)
		}
	}
	return nil
}

func validateCallable(path string, c CallableDecl) *ValidationError {
	if c.Name == "" {
		return invalid(path+".name", "name is required")
	}
	if c.Type == "" {
		return invalid(path+".type", "type is required")
	}
	switch c.Visibility {
	case "", "public", "private":
	default:
		return invalid(path+".visibility", "visibility must be public or private; got %q", c.Visibility)
	}
	if err := validateTypeParameters(path, c.TypeParameters); err != nil {
		return err
	}
	for i, p := range c.Parameters {
		ppath := fmt.Sprintf("%s.parameters[%d]", path, i)
		if p.Name == "" {
			return invalid(ppath+".name", "name is required")
		}
		if p.Type == "" {
			return invalid(ppath+".type", "type is required")
		}
	}
	return nil
}
