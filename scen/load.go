package scen

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"

	"vela/common"
	"vela/logging"
	"vela/sem"
	"vela/typing"
)

// tomlScenarioFile represents a scenario file as it is encoded in TOML
type tomlScenarioFile struct {
	Scenario     *tomlScenario      `toml:"scenario"`
	Types        []*tomlType        `toml:"types"`
	Protocols    []*tomlProtocol    `toml:"protocols"`
	Symbols      []*tomlSymbol      `toml:"symbols"`
	Operators    []*tomlOperator    `toml:"operators"`
	Conformances []*tomlConformance `toml:"conformances"`
	Expr         *tomlExpr          `toml:"expr"`
}

type tomlScenario struct {
	Name     string `toml:"name"`
	Expected string `toml:"expected,omitempty"`
}

// tomlType represents a nominal type declaration as it is encoded in TOML
type tomlType struct {
	Name          string        `toml:"name"`
	Kind          string        `toml:"kind"`
	Super         string        `toml:"super,omitempty"`
	Protocols     []string      `toml:"protocols,omitempty"`
	Generic       []string      `toml:"generic,omitempty"`
	DynamicLookup bool          `toml:"dynamic-lookup"`
	Members       []*tomlMember `toml:"members"`
	Inits         []*tomlMember `toml:"inits"`
	Conversions   []*tomlMember `toml:"conversions"`
	TypeMembers   []string      `toml:"type-members,omitempty"`
}

// tomlMember represents one value declaration as it is encoded in TOML
type tomlMember struct {
	Name         string   `toml:"name"`
	Type         string   `toml:"type"`
	Static       bool     `toml:"static"`
	Invalid      bool     `toml:"invalid"`
	MentionsSelf bool     `toml:"mentions-self"`
	ForeignFunc  bool     `toml:"foreign-func"`
	ForeignType  bool     `toml:"foreign-type"`
	Generic      []string `toml:"generic,omitempty"`
}

type tomlProtocol struct {
	Name            string        `toml:"name"`
	Inherits        []string      `toml:"inherits,omitempty"`
	AssociatedTypes []string      `toml:"associated-types,omitempty"`
	ClassBound      bool          `toml:"class-bound"`
	DynamicLookup   bool          `toml:"dynamic-lookup"`
	Members         []*tomlMember `toml:"members"`
}

type tomlSymbol struct {
	Name      string        `toml:"name"`
	Types     []string      `toml:"types,omitempty"`
	Overloads []*tomlMember `toml:"overloads,omitempty"`
	Mutable   bool          `toml:"mutable"`
}

type tomlOperator struct {
	Name  string   `toml:"name"`
	Arity int      `toml:"arity"`
	Types []string `toml:"types"`
}

type tomlConformance struct {
	Type     string `toml:"type"`
	Protocol string `toml:"protocol"`
}

// tomlExpr represents an expression node as it is encoded in TOML
type tomlExpr struct {
	Kind string `toml:"kind"`

	// lit
	Value string `toml:"value,omitempty"`
	Type  string `toml:"type,omitempty"`

	// name, member, oper
	Name string    `toml:"name,omitempty"`
	Root *tomlExpr `toml:"root,omitempty"`

	// call
	Fn   *tomlExpr  `toml:"fn,omitempty"`
	Args []*tomlArg `toml:"args,omitempty"`

	// oper
	Operands []*tomlExpr `toml:"operands,omitempty"`

	// tuple, array
	Fields   []*tomlArg  `toml:"fields,omitempty"`
	Elements []*tomlExpr `toml:"elements,omitempty"`

	// cast
	Src         *tomlExpr `toml:"src,omitempty"`
	Dest        string    `toml:"dest,omitempty"`
	Conditional bool      `toml:"conditional"`
}

type tomlArg struct {
	Label string    `toml:"label,omitempty"`
	Value *tomlExpr `toml:"value,omitempty"`
}

// -----------------------------------------------------------------------------

// LoadScenario loads and validates one scenario file.  Notation errors are
// logged with their offending spans; the returned error summarizes why the
// scenario could not be loaded.
func LoadScenario(path string) (*Scenario, error) {
	abspath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(abspath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buff, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, err
	}

	tsf := &tomlScenarioFile{}
	if err := toml.Unmarshal(buff, tsf); err != nil {
		return nil, err
	}

	if tsf.Scenario == nil || tsf.Scenario.Name == "" {
		return nil, fmt.Errorf("missing scenario name in %s", path)
	}

	if tsf.Expr == nil {
		return nil, fmt.Errorf("scenario `%s` declares no expression", tsf.Scenario.Name)
	}

	loader := &scenarioLoader{
		lctx: &logging.LogContext{FilePath: abspath},
		uni:  sem.NewUniverse(),
	}

	return loader.load(abspath, tsf)
}

// LoadDir loads every scenario file in a directory, skipping duplicates.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool)

	var scenarios []*Scenario
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != common.ScenarioFileExtension {
			continue
		}

		s, err := LoadScenario(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true

		scenarios = append(scenarios, s)
	}

	return scenarios, nil
}

// -----------------------------------------------------------------------------

// scenarioLoader builds a Scenario out of its decoded TOML form.  Loading
// runs in two passes: declaration shells first so names can refer to each
// other, then every type notation against the completed name tables.
type scenarioLoader struct {
	lctx *logging.LogContext
	uni  *sem.Universe
}

func (l *scenarioLoader) load(abspath string, tsf *tomlScenarioFile) (*Scenario, error) {
	// pass 1: declaration shells
	for _, tt := range tsf.Types {
		decl, err := l.declareType(tt)
		if err != nil {
			return nil, err
		}

		l.uni.Types[tt.Name] = decl
	}

	for _, tp := range tsf.Protocols {
		if tp.Name == "" {
			return nil, fmt.Errorf("protocol declaration missing a name")
		}

		l.uni.Protocols[tp.Name] = &typing.ProtocolDecl{
			Name:          tp.Name,
			ClassBound:    tp.ClassBound,
			DynamicLookup: tp.DynamicLookup,
		}
	}

	// pass 2: fill in everything that references declared names
	for _, tp := range tsf.Protocols {
		if err := l.fillProtocol(tp); err != nil {
			return nil, err
		}
	}

	for _, tt := range tsf.Types {
		if err := l.fillType(tt); err != nil {
			return nil, err
		}
	}

	for _, ts := range tsf.Symbols {
		if err := l.loadSymbol(ts); err != nil {
			return nil, err
		}
	}

	for _, to := range tsf.Operators {
		if err := l.loadOperator(to); err != nil {
			return nil, err
		}
	}

	for _, tc := range tsf.Conformances {
		if err := l.loadConformance(tc); err != nil {
			return nil, err
		}
	}

	scenario := &Scenario{
		ID:   common.GenerateIDFromPath(abspath),
		Name: tsf.Scenario.Name,
		Path: abspath,
		Uni:  l.uni,
	}

	if tsf.Scenario.Expected != "" {
		expected, err := l.parseType(tsf.Scenario.Expected, nil)
		if err != nil {
			return nil, err
		}

		scenario.Expected = expected
	}

	expr, err := l.buildExpr(tsf.Expr)
	if err != nil {
		return nil, err
	}

	scenario.Expr = expr
	return scenario, nil
}

// parseType parses a notation string, logging notation errors with their
// spans before returning them
func (l *scenarioLoader) parseType(src string, scope map[string]*typing.GenericParamDecl) (typing.DataType, error) {
	dt, err := ParseType(src, l.uni, scope)
	if err != nil {
		if ne, ok := err.(*notationError); ok {
			logging.LogNotationError(l.lctx, ne.msg, src, ne.Span())
		}

		return nil, err
	}

	return dt, nil
}

func (l *scenarioLoader) declareType(tt *tomlType) (*typing.TypeDecl, error) {
	if tt.Name == "" {
		return nil, fmt.Errorf("type declaration missing a name")
	}

	decl := &typing.TypeDecl{
		Name:          tt.Name,
		DynamicLookup: tt.DynamicLookup,
	}

	switch tt.Kind {
	case "struct", "":
		decl.Kind = typing.TypeDeclStruct
	case "enum":
		decl.Kind = typing.TypeDeclEnum
	case "class":
		decl.Kind = typing.TypeDeclClass
	default:
		return nil, fmt.Errorf("unknown type kind `%s` on `%s`", tt.Kind, tt.Name)
	}

	// parameter shells now; bounds resolve in pass 2
	for i, g := range tt.Generic {
		decl.GenericParams = append(decl.GenericParams, &typing.GenericParamDecl{
			Name:  genericParamName(g),
			Index: i,
		})
	}

	return decl, nil
}

// genericParamName extracts the parameter name from a bound spec such as
// "T: P + Q" or "T < Super"
func genericParamName(spec string) string {
	for i := 0; i < len(spec); i++ {
		if spec[i] == ':' || spec[i] == '<' || spec[i] == ' ' {
			return spec[:i]
		}
	}

	return spec
}

// fillGenericBounds resolves the bound specs of a parameter list against
// the now complete name tables
func (l *scenarioLoader) fillGenericBounds(specs []string, params []*typing.GenericParamDecl, scope map[string]*typing.GenericParamDecl) error {
	for i, spec := range specs {
		param := params[i]
		rest := strings.TrimSpace(spec[len(param.Name):])
		if rest == "" {
			continue
		}

		switch rest[0] {
		case ':':
			for _, protoName := range strings.Split(rest[1:], "+") {
				protoName = strings.TrimSpace(protoName)
				proto, ok := l.uni.Protocols[protoName]
				if !ok {
					return fmt.Errorf("`%s` bound `%s` is not a declared protocol", param.Name, protoName)
				}

				param.Protocols = append(param.Protocols, proto)
			}

		case '<':
			super, err := l.parseType(strings.TrimSpace(rest[1:]), scope)
			if err != nil {
				return err
			}

			param.Super = super

		default:
			return fmt.Errorf("malformed generic parameter spec `%s`", spec)
		}
	}

	return nil
}

// scopeOf builds the name scope for notations inside a generic declaration
func scopeOf(params []*typing.GenericParamDecl) map[string]*typing.GenericParamDecl {
	if len(params) == 0 {
		return nil
	}

	scope := make(map[string]*typing.GenericParamDecl, len(params))
	for _, param := range params {
		scope[param.Name] = param
	}

	return scope
}

func (l *scenarioLoader) fillType(tt *tomlType) error {
	decl := l.uni.Types[tt.Name]
	scope := scopeOf(decl.GenericParams)

	if err := l.fillGenericBounds(tt.Generic, decl.GenericParams, scope); err != nil {
		return err
	}

	if tt.Super != "" {
		if decl.Kind != typing.TypeDeclClass {
			return fmt.Errorf("`%s` has a superclass but is not a class", tt.Name)
		}

		super, err := l.parseType(tt.Super, scope)
		if err != nil {
			return err
		}

		decl.Super = super
	}

	for _, protoName := range tt.Protocols {
		proto, ok := l.uni.Protocols[protoName]
		if !ok {
			return fmt.Errorf("`%s` conforms to `%s` which is not a declared protocol", tt.Name, protoName)
		}

		decl.Protocols = append(decl.Protocols, proto)
	}

	for _, tm := range tt.Members {
		member, err := l.loadMember(tm, scope)
		if err != nil {
			return err
		}

		decl.Members = append(decl.Members, member)
	}

	for _, tm := range tt.Inits {
		init, err := l.loadMember(tm, scope)
		if err != nil {
			return err
		}

		init.Name = typing.InitializerName
		decl.Initializers = append(decl.Initializers, init)
	}

	for _, tm := range tt.Conversions {
		conv, err := l.loadMember(tm, scope)
		if err != nil {
			return err
		}

		conv.Name = typing.ConversionName
		decl.Conversions = append(decl.Conversions, conv)
	}

	for _, nested := range tt.TypeMembers {
		nestedDecl, ok := l.uni.Types[nested]
		if !ok {
			return fmt.Errorf("`%s` nests `%s` which is not a declared type", tt.Name, nested)
		}

		decl.TypeMembers = append(decl.TypeMembers, nestedDecl)
	}

	return nil
}

func (l *scenarioLoader) fillProtocol(tp *tomlProtocol) error {
	proto := l.uni.Protocols[tp.Name]
	proto.AssociatedTypes = tp.AssociatedTypes

	for _, parentName := range tp.Inherits {
		parent, ok := l.uni.Protocols[parentName]
		if !ok {
			return fmt.Errorf("`%s` inherits `%s` which is not a declared protocol", tp.Name, parentName)
		}

		proto.Inherits = append(proto.Inherits, parent)
	}

	for _, tm := range tp.Members {
		member, err := l.loadMember(tm, nil)
		if err != nil {
			return err
		}

		proto.Members = append(proto.Members, member)
	}

	return nil
}

func (l *scenarioLoader) loadMember(tm *tomlMember, outer map[string]*typing.GenericParamDecl) (*typing.ValueDecl, error) {
	decl := &typing.ValueDecl{
		Name:         tm.Name,
		Static:       tm.Static,
		Invalid:      tm.Invalid,
		MentionsSelf: tm.MentionsSelf,
		ForeignFunc:  tm.ForeignFunc,
		ForeignType:  tm.ForeignType,
	}

	// the member's own generic parameters shadow the owner's
	scope := outer
	if len(tm.Generic) > 0 {
		scope = make(map[string]*typing.GenericParamDecl, len(outer)+len(tm.Generic))
		for name, param := range outer {
			scope[name] = param
		}

		for i, g := range tm.Generic {
			param := &typing.GenericParamDecl{Name: genericParamName(g), Index: i}
			decl.GenericParams = append(decl.GenericParams, param)
			scope[param.Name] = param
		}

		if err := l.fillGenericBounds(tm.Generic, decl.GenericParams, scope); err != nil {
			return nil, err
		}
	}

	dt, err := l.parseType(tm.Type, scope)
	if err != nil {
		return nil, err
	}

	decl.Type = dt
	return decl, nil
}

func (l *scenarioLoader) loadSymbol(ts *tomlSymbol) error {
	if ts.Name == "" {
		return fmt.Errorf("symbol declaration missing a name")
	}

	overloads := ts.Overloads
	for _, notation := range ts.Types {
		overloads = append(overloads, &tomlMember{Type: notation, Static: true})
	}

	for _, tm := range overloads {
		decl, err := l.loadMember(tm, nil)
		if err != nil {
			return err
		}

		decl.Name = ts.Name
		// global declarations need no instance base
		decl.Static = true

		if !l.uni.DefineSymbol(decl) {
			return fmt.Errorf("symbol `%s` declares colliding overloads", ts.Name)
		}
	}

	if ts.Mutable {
		l.uni.GlobalTable[ts.Name].Mutability = sem.NeverMutated
	}

	return nil
}

func (l *scenarioLoader) loadOperator(to *tomlOperator) error {
	if to.Name == "" || to.Arity == 0 {
		return fmt.Errorf("operator declaration missing a name or arity")
	}

	for _, notation := range to.Types {
		decl, err := l.loadMember(&tomlMember{Type: notation, Static: true}, nil)
		if err != nil {
			return err
		}

		decl.Name = to.Name
		decl.Static = true

		if !l.uni.DefineOperator(to.Name, to.Arity, decl) {
			return fmt.Errorf("operator `%s` declares colliding overloads", to.Name)
		}
	}

	return nil
}

func (l *scenarioLoader) loadConformance(tc *tomlConformance) error {
	proto, ok := l.uni.Protocols[tc.Protocol]
	if !ok {
		return fmt.Errorf("conformance names `%s` which is not a declared protocol", tc.Protocol)
	}

	dt, err := l.parseType(tc.Type, nil)
	if err != nil {
		return err
	}

	l.uni.DeclareConformance(dt, proto)
	return nil
}
