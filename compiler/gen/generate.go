package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/tools/imports"

	"github.com/syssam/structcol/compiler/load"
)

// runtimePkg is the import path of the runtime descriptor package.
const runtimePkg = "github.com/syssam/structcol"

// Config holds the generation settings.
type Config struct {
	// Package is the Go package name of the generated files.
	Package string
	// Target is the output directory.
	Target string
	// Workers bounds parallel file generation.
	Workers int
}

// Option configures a generation Config.
type Option func(*Config) error

// WithPackage sets the Go package name of the generated files.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return fmt.Errorf("gen: empty package name")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return fmt.Errorf("gen: empty target directory")
		}
		c.Target = dir
		return nil
	}
}

// WithWorkers bounds the number of files generated in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n > 0 {
			c.Workers = n
		}
		return nil
	}
}

// NewConfig builds a Config with functional options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Package: "model",
		Workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.Target == "" {
		return nil, fmt.Errorf("gen: missing target directory")
	}
	return c, nil
}

// Generator renders one Go file per defined type.
type Generator struct {
	cfg  *Config
	spec *load.Config
}

// NewGenerator returns a Generator for the given settings and definitions.
func NewGenerator(cfg *Config, spec *load.Config) *Generator {
	return &Generator{cfg: cfg, spec: spec}
}

// Generate renders all types in parallel, formats the output through
// goimports, and writes one file per type into the target directory.
func (g *Generator) Generate(ctx context.Context) error {
	if err := os.MkdirAll(g.cfg.Target, 0o755); err != nil {
		return fmt.Errorf("gen: create output directory: %w", err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for _, ts := range g.spec.Types {
		ts := ts
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return g.generateType(ts)
			}
		})
	}
	return eg.Wait()
}

// generateType renders, formats and writes the file of a single type.
func (g *Generator) generateType(ts *load.TypeSpec) error {
	var buf bytes.Buffer
	if err := g.typeFile(ts).Render(&buf); err != nil {
		return fmt.Errorf("gen: render %s: %w", ts.Name, err)
	}
	fullPath := filepath.Join(g.cfg.Target, inflect.Underscore(ts.Name)+".go")
	formatted, err := imports.Process(fullPath, buf.Bytes(), nil)
	if err != nil {
		// Keep the unformatted output around for debugging.
		debugPath := fullPath + ".error"
		_ = os.WriteFile(debugPath, buf.Bytes(), 0o644)
		return fmt.Errorf("gen: format %s: %w (unformatted written to %s)", ts.Name, err, debugPath)
	}
	if err := os.WriteFile(fullPath, formatted, 0o644); err != nil {
		return fmt.Errorf("gen: write %s: %w", fullPath, err)
	}
	return nil
}

// typeFile builds the jennifer file of one value-object type.
func (g *Generator) typeFile(ts *load.TypeSpec) *jen.File {
	f := jen.NewFile(g.cfg.Package)
	f.HeaderComment("Code generated by structgen. DO NOT EDIT.")

	g.genStruct(f, ts)
	g.genConstructor(f, ts)
	for _, a := range ts.Attributes {
		g.genWither(f, ts, a)
	}
	g.genEqual(f, ts)
	g.genDescriptor(f, ts)
	return f
}

// genStruct generates the value-object struct.
func (g *Generator) genStruct(f *jen.File, ts *load.TypeSpec) {
	f.Commentf("%s is the value object stored in the %s database type.", ts.Name, ts.DBType)
	f.Comment("Instances are treated as immutable; use the With methods to derive")
	f.Comment("modified copies.")
	f.Type().Id(ts.Name).StructFunc(func(gr *jen.Group) {
		for _, a := range ts.Attributes {
			gr.Id(exportName(a.Name)).Add(goType(a))
		}
	})
}

// genConstructor generates the NewX constructor in the declared
// constructor order.
func (g *Generator) genConstructor(f *jen.File, ts *load.TypeSpec) {
	order := ts.Constructor
	if order == nil {
		order = attrNames(ts)
	}
	params := make([]jen.Code, 0, len(order))
	dict := jen.Dict{}
	for _, name := range order {
		a, _ := ts.Attribute(name)
		params = append(params, jen.Id(paramName(a.Name)).Add(goType(a)))
		dict[jen.Id(exportName(a.Name))] = jen.Id(paramName(a.Name))
	}
	f.Commentf("New%s returns a %s value object.", ts.Name, ts.Name)
	f.Func().Id("New" + ts.Name).Params(params...).Id(ts.Name).Block(
		jen.Return(jen.Id(ts.Name).Values(dict)),
	)
}

// genWither generates the WithX copy-on-write method of one attribute.
func (g *Generator) genWither(f *jen.File, ts *load.TypeSpec, a *load.AttrSpec) {
	recv := receiverName(ts.Name)
	field := exportName(a.Name)
	f.Commentf("With%s returns a copy of %s with %s replaced.", field, recv, field)
	f.Func().Params(jen.Id(recv).Id(ts.Name)).Id("With" + field).
		Params(jen.Id("v").Add(goType(a))).Id(ts.Name).Block(
		jen.Id(recv).Dot(field).Op("=").Id("v"),
		jen.Return(jen.Id(recv)),
	)
}

// genEqual generates attribute-wise structural equality.
func (g *Generator) genEqual(f *jen.File, ts *load.TypeSpec) {
	recv := receiverName(ts.Name)
	stmts := make([]jen.Code, 0, 2*len(ts.Attributes)+1)
	for _, a := range ts.Attributes {
		field := exportName(a.Name)
		lhs, rhs := jen.Id(recv).Dot(field), jen.Id("other").Dot(field)
		if a.Nillable && a.Type != "[]byte" {
			stmts = append(stmts,
				jen.If(jen.Parens(jen.Add(lhs.Clone()).Op("==").Nil()).Op("!=").
					Parens(jen.Add(rhs.Clone()).Op("==").Nil())).Block(
					jen.Return(jen.False()),
				),
				jen.If(jen.Add(lhs.Clone()).Op("!=").Nil().Op("&&").
					Add(unequal(a, jen.Op("*").Add(lhs.Clone()), jen.Op("*").Add(rhs.Clone())))).Block(
					jen.Return(jen.False()),
				),
			)
			continue
		}
		stmts = append(stmts, jen.If(unequal(a, lhs, rhs)).Block(jen.Return(jen.False())))
	}
	stmts = append(stmts, jen.Return(jen.True()))
	f.Comment("Equal reports attribute-wise equality with other.")
	f.Func().Params(jen.Id(recv).Id(ts.Name)).Id("Equal").
		Params(jen.Id("other").Id(ts.Name)).Bool().Block(stmts...)
}

// unequal renders the negative comparison of one attribute.
func unequal(a *load.AttrSpec, lhs, rhs jen.Code) *jen.Statement {
	switch a.Type {
	case "[]byte":
		return jen.Op("!").Qual("bytes", "Equal").Call(lhs, rhs)
	case "time.Time":
		return jen.Op("!").Parens(jen.Add(lhs)).Dot("Equal").Call(rhs)
	default:
		return jen.Add(lhs).Op("!=").Add(rhs)
	}
}

// genDescriptor generates the XDescriptor helper binding the type to its
// structured column layout.
func (g *Generator) genDescriptor(f *jen.File, ts *load.TypeSpec) {
	order := ts.Constructor
	if order == nil {
		order = attrNames(ts)
	}
	ctorArgs := []jen.Code{jen.Id("New" + ts.Name)}
	for _, name := range order {
		ctorArgs = append(ctorArgs, jen.Lit(runtimeName(name)))
	}
	args := []jen.Code{
		jen.Lit(ts.DBType),
		jen.Id(ts.Name).Values(),
		jen.Qual(runtimePkg, "WithConstructor").Call(ctorArgs...),
	}
	if ts.ColumnOrder != nil {
		colArgs := make([]jen.Code, 0, len(ts.ColumnOrder))
		for _, name := range ts.ColumnOrder {
			colArgs = append(colArgs, jen.Lit(runtimeName(name)))
		}
		args = append(args, jen.Qual(runtimePkg, "WithColumnOrder").Call(colArgs...))
	}
	for _, a := range ts.Attributes {
		if a.Column != runtimeName(a.Name) {
			args = append(args, jen.Qual(runtimePkg, "WithColumn").Call(
				jen.Lit(runtimeName(a.Name)), jen.Lit(a.Column)))
		}
	}
	if ts.NullPolicy == "zero" {
		args = append(args, jen.Qual(runtimePkg, "WithNullPolicy").Call(
			jen.Qual(runtimePkg, "NullZero")))
	}
	f.Commentf("%sDescriptor builds the descriptor mapping %s to the %s database type.",
		ts.Name, ts.Name, ts.DBType)
	f.Func().Id(ts.Name+"Descriptor").Params().
		Params(jen.Op("*").Qual(runtimePkg, "Descriptor"), jen.Error()).Block(
		jen.Return(jen.Qual(runtimePkg, "NewDescriptor").Call(args...)),
	)
}

// attrNames returns the attribute names in declaration order.
func attrNames(ts *load.TypeSpec) []string {
	names := make([]string, len(ts.Attributes))
	for i, a := range ts.Attributes {
		names[i] = a.Name
	}
	return names
}

// goType renders the Go type of an attribute. Nillable attributes other than
// byte slices map to pointers.
func goType(a *load.AttrSpec) jen.Code {
	var base *jen.Statement
	switch a.Type {
	case "[]byte":
		return jen.Index().Byte()
	case "time.Time":
		base = jen.Qual("time", "Time")
	default:
		base = jen.Id(a.Type)
	}
	if a.Nillable {
		return jen.Op("*").Add(base)
	}
	return base
}

var titleCaser = cases.Title(language.Und)

// exportName converts an attribute name to its exported Go field name,
// e.g. "zip_code" becomes "ZipCode".
func exportName(name string) string {
	parts := strings.Split(inflect.Underscore(name), "_")
	for i, p := range parts {
		parts[i] = titleCaser.String(p)
	}
	return strings.Join(parts, "")
}

// paramName converts an attribute name to a constructor parameter name,
// e.g. "zip_code" becomes "zipCode".
func paramName(name string) string {
	n := exportName(name)
	return strings.ToLower(n[:1]) + n[1:]
}

// runtimeName is the attribute name the runtime descriptor derives from the
// exported field, the snake_case form.
func runtimeName(name string) string {
	return inflect.Underscore(name)
}

// receiverName returns the method receiver name of a type.
func receiverName(typeName string) string {
	return strings.ToLower(typeName[:1])
}
