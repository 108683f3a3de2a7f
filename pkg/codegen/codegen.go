// Package codegen generates Zig source constructs from JSON
// specifications. It renders structs, enums, unions, error sets, test
// functions, iterators, and builder patterns from text templates.
package codegen

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/pkg/errors"
)

//go:embed templates/error_set.zig.tmpl
var errorSetTemplate string

//go:embed templates/struct.zig.tmpl
var structTemplate string

//go:embed templates/enum.zig.tmpl
var enumTemplate string

//go:embed templates/union.zig.tmpl
var unionTemplate string

//go:embed templates/test.zig.tmpl
var testTemplate string

//go:embed templates/iterator.zig.tmpl
var iteratorTemplate string

//go:embed templates/builder.zig.tmpl
var builderTemplate string

// Spec type names accepted in the "type" field
const (
	TypeStruct   = "struct"
	TypeEnum     = "enum"
	TypeUnion    = "union"
	TypeErrorSet = "error_set"
	TypeTest     = "test"
	TypeIterator = "iterator"
	TypeBuilder  = "builder"
)

// Defaults applied when a spec omits optional fields
const (
	defaultFieldType      = "i32"
	defaultMethodParams   = "self: *const @This()"
	defaultMethodReturn   = "void"
	defaultMethodBody     = "// TODO: Implement"
	defaultTestCaseBody   = "// TODO: Add test case"
	defaultBuilderDefault = "undefined"
)

// Spec describes a single Zig construct to generate
type Spec struct {
	Type        string     `json:"type"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Fields      []Field    `json:"fields,omitempty"`
	Methods     []Method   `json:"methods,omitempty"`
	Values      []string   `json:"values,omitempty"`
	Errors      []string   `json:"errors,omitempty"`
	ItemType    string     `json:"item_type,omitempty"`
	Cases       []TestCase `json:"cases,omitempty"`
}

// Field is a struct, union, or builder field
type Field struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Default string `json:"default,omitempty"`
}

// Method is a function attached to a generated struct
type Method struct {
	Name       string `json:"name"`
	Params     string `json:"params,omitempty"`
	ReturnType string `json:"return_type,omitempty"`
	Body       string `json:"body,omitempty"`
}

// TestCase is a single assertion inside a generated test block. Type
// selects the testing helper: expect, expectEqual, expectError, or
// empty for a raw code line.
type TestCase struct {
	Type       string `json:"type,omitempty"`
	Condition  string `json:"condition,omitempty"`
	Expected   string `json:"expected,omitempty"`
	Actual     string `json:"actual,omitempty"`
	Error      string `json:"error,omitempty"`
	Expression string `json:"expression,omitempty"`
	Code       string `json:"code,omitempty"`
}

// File is a complete generation request: the specs to render plus
// optional `@import` lines emitted at the top of the output
type File struct {
	Imports []string `json:"imports,omitempty"`
	Specs   []Spec   `json:"specs"`
}

// Generator renders Zig constructs from specs
type Generator struct {
	templates *template.Template
}

// NewGenerator creates a generator with the embedded construct templates
func NewGenerator() *Generator {
	tmpl := template.New("zig")

	template.Must(tmpl.New(TypeErrorSet).Parse(errorSetTemplate))
	template.Must(tmpl.New(TypeStruct).Parse(structTemplate))
	template.Must(tmpl.New(TypeEnum).Parse(enumTemplate))
	template.Must(tmpl.New(TypeUnion).Parse(unionTemplate))
	template.Must(tmpl.New(TypeTest).Parse(testTemplate))
	template.Must(tmpl.New(TypeIterator).Parse(iteratorTemplate))
	template.Must(tmpl.New(TypeBuilder).Parse(builderTemplate))

	return &Generator{templates: tmpl}
}

// constructData feeds the single-body construct templates
type constructData struct {
	Name        string
	Description string
	ItemType    string
	Body        string
}

// builderData feeds the builder pattern template
type builderData struct {
	Name        string
	Fields      string
	Setters     string
	Assignments string
}

// Generate renders a single spec to Zig source
func (g *Generator) Generate(spec Spec) (string, error) {
	switch spec.Type {
	case TypeStruct:
		return g.generateStruct(spec)
	case TypeEnum:
		return g.generateEnum(spec)
	case TypeUnion:
		return g.generateUnion(spec)
	case TypeErrorSet:
		return g.generateErrorSet(spec)
	case TypeTest:
		return g.generateTest(spec)
	case TypeIterator:
		return g.generateIterator(spec)
	case TypeBuilder:
		return g.generateBuilder(spec)
	case "":
		return "", errors.New("spec is missing a type")
	default:
		return "", errors.Errorf("unknown code type: %s", spec.Type)
	}
}

// GenerateFile renders a complete Zig file: import lines followed by
// each spec separated by a blank line
func (g *Generator) GenerateFile(specs []Spec, imports []string) (string, error) {
	var b strings.Builder

	for _, imp := range imports {
		if imp == "std" {
			b.WriteString("const std = @import(\"std\");\n")
		} else {
			fmt.Fprintf(&b, "const %s = @import(%q);\n", imp, imp)
		}
	}
	if len(imports) > 0 {
		b.WriteString("\n")
	}

	for i, spec := range specs {
		code, err := g.Generate(spec)
		if err != nil {
			return "", errors.Wrapf(err, "spec %d", i)
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(code)
	}

	return b.String(), nil
}

// Render renders a parsed spec file
func (g *Generator) Render(file *File) (string, error) {
	return g.GenerateFile(file.Specs, file.Imports)
}

func (g *Generator) generateStruct(spec Spec) (string, error) {
	if err := requireName(spec); err != nil {
		return "", err
	}

	lines := fieldLines(spec.Fields)
	for _, m := range spec.Methods {
		if m.Name == "" {
			return "", errors.Errorf("method name is required in struct %s", spec.Name)
		}

		params := m.Params
		if params == "" {
			params = defaultMethodParams
		}
		returnType := m.ReturnType
		if returnType == "" {
			returnType = defaultMethodReturn
		}
		body := m.Body
		if body == "" {
			body = defaultMethodBody
		}

		lines = append(lines,
			"",
			fmt.Sprintf("    pub fn %s(%s) %s {", m.Name, params, returnType),
			"        "+body,
			"    }",
		)
	}

	return g.render(TypeStruct, constructData{Name: spec.Name, Body: strings.Join(lines, "\n")})
}

func (g *Generator) generateEnum(spec Spec) (string, error) {
	if err := requireName(spec); err != nil {
		return "", err
	}

	lines := make([]string, 0, len(spec.Values))
	for _, v := range spec.Values {
		lines = append(lines, "    "+v+",")
	}

	return g.render(TypeEnum, constructData{Name: spec.Name, Body: strings.Join(lines, "\n")})
}

func (g *Generator) generateUnion(spec Spec) (string, error) {
	if err := requireName(spec); err != nil {
		return "", err
	}

	return g.render(TypeUnion, constructData{Name: spec.Name, Body: strings.Join(fieldLines(spec.Fields), "\n")})
}

func (g *Generator) generateErrorSet(spec Spec) (string, error) {
	if err := requireName(spec); err != nil {
		return "", err
	}

	lines := make([]string, 0, len(spec.Errors))
	for _, e := range spec.Errors {
		lines = append(lines, "    "+e+",")
	}

	return g.render(TypeErrorSet, constructData{Name: spec.Name, Body: strings.Join(lines, "\n")})
}

func (g *Generator) generateTest(spec Spec) (string, error) {
	description := spec.Description
	if description == "" {
		description = "test"
	}

	lines := make([]string, 0, len(spec.Cases))
	for _, c := range spec.Cases {
		switch c.Type {
		case "expect":
			lines = append(lines, fmt.Sprintf("    try testing.expect(%s);", c.Condition))
		case "expectEqual":
			lines = append(lines, fmt.Sprintf("    try testing.expectEqual(%s, %s);", c.Expected, c.Actual))
		case "expectError":
			lines = append(lines, fmt.Sprintf("    try testing.expectError(%s, %s);", c.Error, c.Expression))
		default:
			code := c.Code
			if code == "" {
				code = defaultTestCaseBody
			}
			lines = append(lines, "    "+code)
		}
	}

	return g.render(TypeTest, constructData{Description: description, Body: strings.Join(lines, "\n")})
}

func (g *Generator) generateIterator(spec Spec) (string, error) {
	if err := requireName(spec); err != nil {
		return "", err
	}

	itemType := spec.ItemType
	if itemType == "" {
		itemType = defaultFieldType
	}

	return g.render(TypeIterator, constructData{Name: spec.Name, ItemType: itemType})
}

func (g *Generator) generateBuilder(spec Spec) (string, error) {
	if err := requireName(spec); err != nil {
		return "", err
	}

	var fields, setters, assignments []string
	for _, f := range spec.Fields {
		if f.Name == "" {
			return "", errors.Errorf("field name is required in builder %s", spec.Name)
		}

		typ := f.Type
		if typ == "" {
			typ = defaultFieldType
		}
		def := f.Default
		if def == "" {
			def = defaultBuilderDefault
		}

		fields = append(fields, fmt.Sprintf("    %s: %s = %s,", f.Name, typ, def))
		setters = append(setters, fmt.Sprintf(`    pub fn set%s(self: *%sBuilder, value: %s) *%sBuilder {
        self.%s = value;
        return self;
    }`, toTitle(f.Name), spec.Name, typ, spec.Name, f.Name))
		assignments = append(assignments, fmt.Sprintf("            .%s = self.%s,", f.Name, f.Name))
	}

	return g.render(TypeBuilder, builderData{
		Name:        spec.Name,
		Fields:      strings.Join(fields, "\n"),
		Setters:     strings.Join(setters, "\n\n"),
		Assignments: strings.Join(assignments, "\n"),
	})
}

func (g *Generator) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := g.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.Wrapf(err, "failed to render %s template", name)
	}
	return buf.String(), nil
}

func requireName(spec Spec) error {
	if spec.Name == "" {
		return errors.Errorf("name is required for %s specs", spec.Type)
	}
	return nil
}

// fieldLines formats struct and union fields, defaulting the type and
// appending a default value when one is given
func fieldLines(fields []Field) []string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		typ := f.Type
		if typ == "" {
			typ = defaultFieldType
		}

		if f.Default != "" {
			lines = append(lines, fmt.Sprintf("    %s: %s = %s,", f.Name, typ, f.Default))
		} else {
			lines = append(lines, fmt.Sprintf("    %s: %s,", f.Name, typ))
		}
	}
	return lines
}

// toTitle converts a string to title case (replacement for deprecated strings.Title)
func toTitle(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// ParseSpecFile interprets raw JSON as a generation request. Three
// input shapes are accepted: a single spec object, an array of specs,
// and a file object with "specs" plus optional "imports". The file
// form defaults imports to std when none are given.
func ParseSpecFile(data []byte) (*File, error) {
	data = bytes.TrimSpace(data)

	var list []Spec
	if err := json.Unmarshal(data, &list); err == nil {
		return &File{Specs: list}, nil
	}

	var probe struct {
		Specs json.RawMessage `json:"specs"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.Wrap(err, "invalid spec JSON")
	}

	if probe.Specs != nil {
		var file File
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, errors.Wrap(err, "invalid spec JSON")
		}
		if file.Imports == nil {
			file.Imports = []string{"std"}
		}
		return &file, nil
	}

	var single Spec
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, errors.Wrap(err, "invalid spec JSON")
	}
	return &File{Specs: []Spec{single}}, nil
}
