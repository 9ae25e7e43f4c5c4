package facts

import (
	"fmt"
	"github.com/funvibe/givens/internal/config"
	"github.com/funvibe/givens/internal/resolution"
	"github.com/funvibe/givens/internal/symbols"
	"github.com/funvibe/givens/internal/typesystem"
	"strconv"
	"strings"
)

// Program is a compiled facts document. Classifiers and callables are
// immutable and shared; every Job gets its own session and scope tree.
type Program struct {
	classifiers map[string]*typesystem.Classifier
	byName      map[string][]*typesystem.Classifier
	builtins    map[string]*typesystem.Classifier

	modules map[string][]*symbols.Callable
	// moduleOrder keeps module registration deterministic.
	moduleOrder []string
	scopes      map[string]*scopeFacts
	scopeOrder  []string
	sites       []*siteFacts
}

type scopeFacts struct {
	decl           ScopeDecl
	kind           symbols.ScopeKind
	env            *env
	typeParameters []*typesystem.Classifier
	callables      []*symbols.Callable
	hidden         map[string]bool
}

type siteFacts struct {
	name   string
	scope  string
	callee *symbols.Callable
}

// env is a chain of type parameter name tables.
type env struct {
	parent *env
	params map[string]*typesystem.Classifier
}

func (e *env) child(params []*typesystem.Classifier) *env {
	m := make(map[string]*typesystem.Classifier, len(params))
	for _, p := range params {
		m[p.FqName] = p
	}
	return &env{parent: e, params: m}
}

// lookupFunc resolves type parameters of e first, then classifier keys,
// then unique display names, then built-ins.
func (p *Program) lookupFunc(e *env) lookupFunc {
	return func(name string) (*typesystem.Classifier, error) {
		for s := e; s != nil; s = s.parent {
			if c, ok := s.params[name]; ok {
				return c, nil
			}
		}
		if c, ok := p.classifiers[name]; ok {
			return c, nil
		}
		switch named := p.byName[name]; len(named) {
		case 0:
		case 1:
			return named[0], nil
		default:
			keys := make([]string, len(named))
			for i, c := range named {
				keys[i] = c.Key
			}
			return nil, fmt.Errorf("%s is ambiguous: %s", name, strings.Join(keys, ", "))
		}
		if c, ok := p.builtins[name]; ok {
			return c, nil
		}
		if rest, ok := strings.CutPrefix(name, config.FunctionTypeName); ok {
			if n, err := strconv.Atoi(rest); err == nil && n >= 0 {
				return typesystem.FunctionN(n), nil
			}
		}
		return nil, typesystem.NewClassifierNotFoundError(name)
	}
}

func (p *Program) parse(path, src string, e *env) (*typesystem.Type, error) {
	t, err := parseType(src, p.lookupFunc(e))
	if err != nil {
		return nil, invalid(path, "%v", err)
	}
	return t, nil
}

// Compile resolves every type expression of doc and prepares the scope
// facts. The document must have been validated by Parse.
func Compile(doc *Document) (*Program, error) {
	p := &Program{
		classifiers: map[string]*typesystem.Classifier{},
		byName:      map[string][]*typesystem.Classifier{},
		builtins:    typesystem.Builtins(),
		modules:     map[string][]*symbols.Callable{},
		scopes:      map[string]*scopeFacts{},
	}
	if err := p.compileClassifiers(doc.Classifiers); err != nil {
		return nil, err
	}
	if err := p.compileScopes(doc.Scopes); err != nil {
		return nil, err
	}
	if err := p.compileSites(doc.Sites); err != nil {
		return nil, err
	}
	return p, nil
}

func parseVariance(s string) (typesystem.Variance, bool) {
	switch s {
	case "", "inv":
		return typesystem.Inv, true
	case "in":
		return typesystem.In, true
	case "out":
		return typesystem.Out, true
	}
	return typesystem.Inv, false
}

// declareTypeParameters creates the parameters first so that bounds may
// refer to any of them, then resolves the bounds.
func (p *Program) declareTypeParameters(path, keyPrefix string, decls []TypeParameterDecl, outer *env) ([]*typesystem.Classifier, *env, error) {
	params := make([]*typesystem.Classifier, len(decls))
	for i, d := range decls {
		variance, _ := parseVariance(d.Variance)
		params[i] = typesystem.NewTypeParameter(keyPrefix+"."+d.Name, d.Name, variance)
		params[i].IsReified = d.Reified
		params[i].IsSpread = d.Spread
	}
	e := outer.child(params)
	for i, d := range decls {
		if len(d.Bounds) == 0 {
			continue
		}
		bounds := make([]*typesystem.Type, len(d.Bounds))
		for j, b := range d.Bounds {
			t, err := p.parse(fmt.Sprintf("%s.type_parameters[%d].bounds[%d]", path, i, j), b, e)
			if err != nil {
				return nil, nil, err
			}
			bounds[j] = t
		}
		params[i].LazySuperTypes = func() []*typesystem.Type { return bounds }
	}
	done := map[*typesystem.Classifier]bool{}
	for i, param := range params {
		if cycle := inheritanceCycle(param, done); cycle != nil {
			return nil, nil, invalid(fmt.Sprintf("%s.type_parameters[%d].bounds", path, i),
				"cyclic bounds: %s", strings.Join(cycle, " -> "))
		}
	}
	return params, e, nil
}

func (p *Program) compileClassifiers(decls []ClassifierDecl) error {
	envs := make([]*env, len(decls))
	classifiers := make([]*typesystem.Classifier, len(decls))
	for i, d := range decls {
		name := d.Name
		if name == "" {
			name = d.Key
		}
		c := &typesystem.Classifier{Key: d.Key, FqName: name}
		params, e, err := p.declareTypeParameters(fmt.Sprintf("classifiers[%d]", i), d.Key, d.TypeParameters, nil)
		if err != nil {
			return err
		}
		if d.Tag {
			c = typesystem.NewTagClassifier(d.Key, name, params...)
		} else {
			c.TypeParameters = params
		}
		p.classifiers[d.Key] = c
		if name != d.Key {
			p.byName[name] = append(p.byName[name], c)
		}
		envs[i], classifiers[i] = e, c
	}

	// Supertypes, tags and members may reference any classifier, so they
	// are resolved once every classifier exists.
	for i, d := range decls {
		path := fmt.Sprintf("classifiers[%d]", i)
		c, e := classifiers[i], envs[i]
		if len(d.SuperTypes) > 0 {
			supers := make([]*typesystem.Type, len(d.SuperTypes))
			for j, s := range d.SuperTypes {
				t, err := p.parse(fmt.Sprintf("%s.supertypes[%d]", path, j), s, e)
				if err != nil {
					return err
				}
				supers[j] = t
			}
			c.LazySuperTypes = func() []*typesystem.Type { return supers }
		}
		for j, tag := range d.Tags {
			tpath := fmt.Sprintf("%s.tags[%d]", path, j)
			t, err := p.parseTag(tpath, tag, e)
			if err != nil {
				return err
			}
			c.Tags = append(c.Tags, t)
		}
		for j, m := range d.Members {
			member, err := p.compileCallable(fmt.Sprintf("%s.members[%d]", path, j), m, e)
			if err != nil {
				return err
			}
			if _, ok := p.modules[c.Key]; !ok {
				p.moduleOrder = append(p.moduleOrder, c.Key)
			}
			p.modules[c.Key] = append(p.modules[c.Key], member)
		}
	}

	done := map[*typesystem.Classifier]bool{}
	for i, c := range classifiers {
		if cycle := inheritanceCycle(c, done); cycle != nil {
			return invalid(fmt.Sprintf("classifiers[%d].supertypes", i),
				"cyclic inheritance: %s", strings.Join(cycle, " -> "))
		}
	}
	return nil
}

// inheritanceCycle walks the declared supertypes of c and returns the names
// along the first cycle it finds, the first name repeated at the end.
// Classifiers already proven acyclic are recorded in done.
func inheritanceCycle(c *typesystem.Classifier, done map[*typesystem.Classifier]bool) []string {
	var path []*typesystem.Classifier
	onPath := map[*typesystem.Classifier]int{}
	var visit func(*typesystem.Classifier) []string
	visit = func(c *typesystem.Classifier) []string {
		if done[c] {
			return nil
		}
		if i, ok := onPath[c]; ok {
			cycle := make([]string, 0, len(path)-i+1)
			for _, step := range path[i:] {
				cycle = append(cycle, step.FqName)
			}
			return append(cycle, c.FqName)
		}
		onPath[c] = len(path)
		path = append(path, c)
		// LazySuperTypes is read directly so that nothing is cached before
		// every declaration is compiled.
		if c.LazySuperTypes != nil {
			for _, s := range c.LazySuperTypes() {
				if cycle := visit(s.Classifier); cycle != nil {
					return cycle
				}
			}
		}
		path = path[:len(path)-1]
		delete(onPath, c)
		done[c] = true
		return nil
	}
	return visit(c)
}

// parseTag reads "@Tag<args>" as a tag type still missing its wrapped type.
func (p *Program) parseTag(path, src string, e *env) (*typesystem.Type, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(src), "@")
	if !ok {
		return nil, invalid(path, "tag %q must start with @", src)
	}
	parser := &typeParser{src: rest, lookup: p.lookupFunc(e)}
	t, err := parser.parseTag()
	if err == nil && parser.peek() != 0 {
		err = parser.errorf("unexpected %q", rest[parser.pos:])
	}
	if err != nil {
		return nil, invalid(path, "%v", err)
	}
	return t, nil
}

func (p *Program) compileCallable(path string, d CallableDecl, outer *env) (*symbols.Callable, error) {
	params, e, err := p.declareTypeParameters(path, path+"/"+d.Name, d.TypeParameters, outer)
	if err != nil {
		return nil, err
	}
	typ, err := p.parse(path+".type", d.Type, e)
	if err != nil {
		return nil, err
	}

	var parameters []symbols.Parameter
	if d.ExtensionReceiver != "" {
		t, err := p.parse(path+".extension_receiver", d.ExtensionReceiver, e)
		if err != nil {
			return nil, err
		}
		parameters = append(parameters, symbols.Parameter{
			Index: symbols.ExtensionReceiverIndex, Name: "<receiver>", Type: t, Inject: true,
		})
	}
	if d.Receiver != "" {
		t, err := p.parse(path+".receiver", d.Receiver, e)
		if err != nil {
			return nil, err
		}
		parameters = append(parameters, symbols.Parameter{
			Index: symbols.DispatchReceiverIndex, Name: "<this>", Type: t, Inject: true,
		})
	}
	for i, pd := range d.Parameters {
		t, err := p.parse(fmt.Sprintf("%s.parameters[%d].type", path, i), pd.Type, e)
		if err != nil {
			return nil, err
		}
		parameters = append(parameters, symbols.Parameter{
			Index: i, Name: pd.Name, Type: t, Inject: pd.Inject, HasDefault: pd.Default,
		})
	}

	c := symbols.NewCallable(d.Name, typ, params, parameters...)
	if d.Visibility == "private" {
		c.Visibility = symbols.Private
	}
	return c, nil
}

func (p *Program) compileScopes(decls []ScopeDecl) error {
	index := map[string]int{}
	for i, d := range decls {
		index[d.Name] = i
	}

	state := map[string]int{} // 1 = in progress, 2 = done
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case 1:
			return invalid(fmt.Sprintf("scopes[%d].parent", index[name]), "scope %q is its own ancestor", name)
		case 2:
			return nil
		}
		state[name] = 1
		i := index[name]
		d := decls[i]
		path := fmt.Sprintf("scopes[%d]", i)

		var outer *env
		if d.Parent != "" {
			if err := visit(d.Parent); err != nil {
				return err
			}
			outer = p.scopes[d.Parent].env
		}

		kind := symbols.ScopeBlock
		if d.Parent == "" {
			kind = symbols.ScopeFile
		}
		if d.Kind != "" {
			kind, _ = symbols.ParseScopeKind(d.Kind)
		}
		params, e, err := p.declareTypeParameters(path, path, d.TypeParameters, outer)
		if err != nil {
			return err
		}
		sf := &scopeFacts{decl: d, kind: kind, env: e, typeParameters: params, hidden: map[string]bool{}}
		for _, h := range d.Hidden {
			sf.hidden[h] = true
		}
		for j, cd := range d.Callables {
			c, err := p.compileCallable(fmt.Sprintf("%s.callables[%d]", path, j), cd, e)
			if err != nil {
				return err
			}
			sf.callables = append(sf.callables, c)
		}
		p.scopes[name] = sf
		p.scopeOrder = append(p.scopeOrder, name)
		state[name] = 2
		return nil
	}

	for _, d := range decls {
		if err := visit(d.Name); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) compileSites(decls []SiteDecl) error {
	for i, d := range decls {
		e := p.scopes[d.Scope].env
		var params []symbols.Parameter
		for j, r := range d.Requests {
			t, err := p.parse(fmt.Sprintf("sites[%d].requests[%d].type", i, j), r.Type, e)
			if err != nil {
				return err
			}
			required := r.Required == nil || *r.Required
			params = append(params, symbols.Parameter{
				Index: j, Name: r.Name, Type: t, Inject: true, HasDefault: !required,
			})
		}
		callee := symbols.NewCallable(d.Name, typesystem.UnitClassifier.DefaultType(), nil, params...)
		p.sites = append(p.sites, &siteFacts{name: d.Name, scope: d.Scope, callee: callee})
	}
	return nil
}

// Sites lists the injection site names in document order.
func (p *Program) Sites() []string {
	names := make([]string, len(p.sites))
	for i, s := range p.sites {
		names[i] = s.name
	}
	return names
}

// Classifier returns a declared classifier by key.
func (p *Program) Classifier(key string) (*typesystem.Classifier, bool) {
	c, ok := p.classifiers[key]
	return c, ok
}

// Job builds a fresh session and scope tree for the named site.
func (p *Program) Job(site string) (resolution.Job, error) {
	for _, s := range p.sites {
		if s.name == site {
			return p.job(s), nil
		}
	}
	return resolution.Job{}, fmt.Errorf("unknown site %q", site)
}

// Jobs builds one independent job per site.
func (p *Program) Jobs() []resolution.Job {
	jobs := make([]resolution.Job, len(p.sites))
	for i, s := range p.sites {
		jobs[i] = p.job(s)
	}
	return jobs
}

func (p *Program) job(site *siteFacts) resolution.Job {
	session := symbols.NewSession()
	for _, key := range p.moduleOrder {
		session.RegisterModule(key, p.modules[key]...)
	}
	scopes := p.buildScopes(session, site.scope)
	return resolution.Job{
		Name:     site.name,
		Scope:    scopes[site.scope],
		Callee:   site.callee,
		Requests: site.callee.Requests(),
	}
}

// buildScopes creates the chain of scopes from the root down to target.
func (p *Program) buildScopes(session *symbols.Session, target string) map[string]*symbols.Scope {
	var chain []*scopeFacts
	for name := target; name != ""; name = p.scopes[name].decl.Parent {
		chain = append(chain, p.scopes[name])
	}

	built := map[string]*symbols.Scope{}
	var parent *symbols.Scope
	for i := len(chain) - 1; i >= 0; i-- {
		sf := chain[i]
		opts := []symbols.ScopeOption{
			symbols.WithKind(sf.kind),
			symbols.WithCallables(sf.callables...),
			symbols.WithTypeParameters(sf.typeParameters...),
		}
		if sf.decl.Owner != "" {
			opts = append(opts, symbols.WithOwner(sf.decl.Owner))
		}
		if len(sf.hidden) > 0 {
			hidden := sf.hidden
			opts = append(opts, symbols.WithVisibility(func(c *symbols.Callable) bool { return !hidden[c.Name] }))
		}
		scope := symbols.NewScope(session, sf.decl.Name, parent, opts...)
		built[sf.decl.Name] = scope
		parent = scope
	}
	return built
}
