// Package omgidl parses general OMG IDL struct definitions — the
// "omgidl" schema encoding — covering modules, structs, typedefs, and
// the primitive/sequence/array field shapes common to hand-written or
// vendor-generated IDL, as distinct from ros2idl's ROS2-specific
// fixed-width type names.
package omgidl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// nolint:gochecknoglobals
var (
	Lexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `//[^\n]*`},
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "Integer", Pattern: `[0-9]+`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "LBrace", Pattern: `\{`},
		{Name: "RBrace", Pattern: `\}`},
		{Name: "LAngle", Pattern: `<`},
		{Name: "RAngle", Pattern: `>`},
		{Name: "LBracket", Pattern: `\[`},
		{Name: "RBracket", Pattern: `\]`},
		{Name: "Semi", Pattern: `;`},
		{Name: "Comma", Pattern: `,`},
	})

	FileParser = participle.MustBuild[File](
		participle.Lexer(Lexer),
		participle.Union[Declaration](TypeDef{}, Struct{}),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(1000),
	)
)

type File struct {
	Modules []*Module `@@*`
}

type Module struct {
	Name         string        `"module" @Ident "{"`
	Modules      []*Module     `@@*`
	Declarations []Declaration `@@*`
	End          bool          `"}" ";"?`
}

// Declaration is either a typedef or a struct definition.
type Declaration interface{ declaration() }

func (t TypeDef) declaration() {}
func (s Struct) declaration()  {}

// TypeDef aliases Name to Type — e.g. `typedef long int32;` or
// `typedef octet Bytes4[4];`.
type TypeDef struct {
	Type      *FieldType `"typedef" @@`
	Name      string     `@Ident`
	FixedSize int        `("[" @Integer "]")? ";"`
}

type Struct struct {
	Name   string   `"struct" @Ident "{"`
	Fields []*Field `@@*`
	End    bool     `"}" ";"?`
}

type Field struct {
	Type      *FieldType `@@`
	Name      string     `@Ident`
	FixedSize int        `("[" @Integer "]")? ";"`
}

// FieldType is a sequence of an inner type, or a type name spanning up to
// two identifiers — covering the two-word CORBA primitives ("unsigned
// short", "unsigned long", "long long") alongside single-word names.
type FieldType struct {
	SequenceOf *FieldType `( "sequence" "<" @@ ("," Integer)? ">"`
	Name       string     `| @Ident @Ident? )`
}
