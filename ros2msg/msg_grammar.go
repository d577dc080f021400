package ros2msg

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

/*
Grammar for the ROS2 IDL format:
https://docs.ros.org/en/iron/Concepts/Basic/About-Interfaces.html

This is for msg files only, no action or service support.
*/

// nolint:gochecknoglobals
var (
	Lexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "Newline", Pattern: `\s*[\n\r]+`},
		{Name: "String", Pattern: `'[^']*'|"[^"]*"`},
		{Name: "Float", Pattern: `[+-]?[0-9]+\.[0-9]+`},
		{Name: "Integer", Pattern: `[+-]?[0-9]+`},
		{Name: "Word", Pattern: `[a-zA-Z0-9\_]+`},
		{Name: "Whitespace", Pattern: `[\s\t]+`},
		{Name: "LBracket", Pattern: `\[`},
		{Name: "RBracket", Pattern: `\]`},
		{Name: "Slash", Pattern: `/`},
		{Name: "Colon", Pattern: `:`},
		{Name: "LEQ", Pattern: `<=`},
		{Name: "Equals", Pattern: `=`},
	})

	MessageDefinitionParser = participle.MustBuild[MessageDefinition](
		participle.Lexer(Lexer),
		participle.Union[SchemaElement](Constant{}, ROSField{}),
		participle.Elide("Whitespace", "Newline", "Comment"),
		participle.UseLookahead(1000),
	)
)

type MessageDefinition struct {
	Elements    []SchemaElement `@@*`
	Definitions []Definition    `@@*`
}

type Definition struct {
	Header   Header          `Equals+ @@`
	Elements []SchemaElement `@@*`
}

type Header struct {
	Type string `'MSG' Colon @(Word ( Slash Word )*)`
}

// ROSField is a plain message field, optionally carrying a default value —
// ROS2 messages may declare one inline after the field name.
type ROSField struct {
	Type    *ROSType `@@`
	Name    string   `@Word`
	Default *Value   `@@?`
}

type Constant struct {
	Type  *ROSType `@@`
	Name  string   `@Word Equals`
	Value Value    `@@`
}

// QuotedString is a string literal stripped of its surrounding quotes.
type QuotedString string

// Capture implements participle's capture hook, trimming the lexed quote
// characters from the raw token text.
func (q *QuotedString) Capture(values []string) error {
	*q = QuotedString(strings.Trim(values[0], `'"`))
	return nil
}

// Value is a constant or default-value literal: a quoted string, an
// integer, or a float.
type Value struct {
	String *QuotedString `@String`
	Int    *int64        `| @Integer`
	Float  *float64      `| @Float`
}

type ROSType struct {
	Name      string `@(Word ( Slash Word )*)`
	SizeBound int    `(LEQ @Integer)?`
	Array     bool   `@LBracket?`
	Bounded   bool   `@LEQ?`
	FixedSize int    `(( @Integer RBracket ) | RBracket)?`
}

type SchemaElement interface{ value() }

func (f ROSField) value() {}
func (c Constant) value() {}
