// Package ros2idl parses the "ros2idl" schema encoding: IDL struct
// definitions as ros2 message generators emit them, embedded verbatim in
// an MCAP schema record. The grammar is a practical subset of OMG IDL —
// modules, structs, and the primitive/sequence/array field shapes ROS2
// interface generation actually produces — not the full IDL language.
package ros2idl

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
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(1000),
	)
)

// File is a sequence of nested modules — the shape `rosidl` generates: one
// module per package path segment, then a "msg" module, then the struct.
type File struct {
	Modules []*Module `@@*`
}

type Module struct {
	Name    string    `"module" @Ident "{"`
	Modules []*Module `@@*`
	Structs []*Struct `@@*`
	End     bool      `"}" ";"?`
}

type Struct struct {
	Name   string   `"struct" @Ident "{"`
	Fields []*Field `@@*`
	End    bool     `"}" ";"?`
}

// Field is one struct member: a type, a name, and — per IDL's array
// syntax — an optional fixed size bound attached to the name rather than
// the type (`octet data[4];`, not `octet[4] data;`).
type Field struct {
	Type      *FieldType `@@`
	Name      string     `@Ident`
	FixedSize int        `("[" @Integer "]")?`
	End       bool       `";"`
}

// FieldType is either a (possibly bounded) sequence of an inner type, or a
// plain name — a primitive keyword or a struct reference.
type FieldType struct {
	SequenceOf *FieldType `( "sequence" "<" @@ ("," Integer)? ">"`
	Name       string     `| @Ident )`
}
