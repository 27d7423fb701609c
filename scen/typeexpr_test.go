package scen

import (
	"os"
	"testing"

	"vela/logging"
	"vela/sem"
	"vela/typing"
)

func TestMain(m *testing.M) {
	logging.Initialize("silent")
	os.Exit(m.Run())
}

// notationUniverse declares the named types the notation tests refer to:
// struct Point, generic struct Box<T>, and protocols Shape and Solid.
func notationUniverse() *sem.Universe {
	uni := sem.NewUniverse()

	uni.Types["Point"] = &typing.TypeDecl{Name: "Point", Kind: typing.TypeDeclStruct}
	uni.Types["Box"] = &typing.TypeDecl{
		Name:          "Box",
		Kind:          typing.TypeDeclStruct,
		GenericParams: []*typing.GenericParamDecl{{Name: "T"}},
	}

	uni.Protocols["Shape"] = &typing.ProtocolDecl{Name: "Shape"}
	uni.Protocols["Solid"] = &typing.ProtocolDecl{Name: "Solid"}

	return uni
}

func TestParseTypeNotation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		want string
	}{
		{"Int", "Int"},
		{"Int?", "Int?"},
		{"Int??", "Int??"},
		{"[Int]", "[Int]"},
		{"[[String]]", "[[String]]"},
		{"(Int, label: Bool)", "(Int, label: Bool)"},
		{"()", "()"},
		{"(Int) -> Bool", "(Int) -> Bool"},
		{"() -> Unit", "() -> Unit"},
		{"(Int, Int) -> (Int) -> Int", "(Int, Int) -> (Int) -> Int"},
		{"(Int...) -> Unit", "(Int...) -> Unit"},

		// defaults are structural only; display drops them
		{"(x: Int, y: Int = _) -> Point", "(x: Int, y: Int) -> Point"},

		// single unlabeled parens are grouping, not a one-tuple
		{"((Int))", "Int"},
		{"(Int?)", "Int?"},

		{"Point", "Point"},
		{"Point.Type", "Point.Type"},
		{"Box<Int>", "Box[Int]"},
		{"Box<[Int]>", "Box[[Int]]"},
		{"Box<Box<Int>>", "Box[Box[Int]]"},
		{"Box", "Box[_]"},

		{"Shape", "Shape"},
		{"Shape & Solid", "Shape & Solid"},
		{"Shape?", "Shape?"},

		{"@auto () -> Int", "@auto () -> Int"},
		{"@noreturn () -> Unit", "@noreturn () -> Unit"},
		{"@lvalue Int", "@lvalue Int"},
	}

	uni := notationUniverse()
	for _, c := range cases {
		c := c
		t.Run(c.src, func(t *testing.T) {
			t.Parallel()

			dt, err := ParseType(c.src, uni, nil)
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}

			if got := dt.Repr(); got != c.want {
				t.Errorf("parsed to %s, want %s", got, c.want)
			}
		})
	}
}

func TestParseTypeNotationInScope(t *testing.T) {
	t.Parallel()

	scope := map[string]*typing.GenericParamDecl{"T": {Name: "T"}}
	uni := notationUniverse()

	dt, err := ParseType("T", uni, scope)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if _, ok := dt.(*typing.GenericParamType); !ok {
		t.Errorf("T parsed to %T, want a generic parameter reference", dt)
	}

	dep, err := ParseType("T.Elem", uni, scope)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if _, ok := dep.(*typing.DependentType); !ok {
		t.Errorf("T.Elem parsed to %T, want a dependent type", dep)
	}

	if dep.Repr() != "T.Elem" {
		t.Errorf("dependent type displays as %s, want T.Elem", dep.Repr())
	}
}

func TestParseTypeNotationErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  string
	}{
		{"undefined name", "Missing"},
		{"wrong generic arity", "Box<Int, Bool>"},
		{"arguments on a non-generic", "Point<Int>"},
		{"unterminated parens", "(Int"},
		{"unterminated brackets", "[Int"},
		{"non-protocol in a composition", "Int & Shape"},
		{"unknown attribute", "@weird Int"},
		{"function attribute on a value type", "@auto Int"},
		{"trailing text", "Int Bool"},
		{"dependency on a concrete type", "Point.Elem"},
		{"empty source", ""},
	}

	uni := notationUniverse()
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			if _, err := ParseType(c.src, uni, nil); err == nil {
				t.Errorf("%q parsed without error", c.src)
			}
		})
	}
}
