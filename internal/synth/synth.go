// Package synth turns binding groups into Go source.
//
// For every owner it writes a helper type whose Inject method looks every
// bound id up before assigning any field, so an injection either fills all
// fields or none. For every package it writes a registration function that
// hands each helper constructor to a bind.Registry.
//
// Output is rendered with jennifer, which formats it with go/format, and is
// byte-identical for identical input.
package synth

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"go/token"
	"maps"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/sghaida/autobind/internal/discover"
	"github.com/sghaida/autobind/internal/naming"
)

// DefaultRuntimeImport is the import path of the bind runtime package.
const DefaultRuntimeImport = "github.com/sghaida/autobind/bind"

// Kind tells what an artifact holds.
type Kind uint8

const (
	KindHelper Kind = iota + 1
	KindRegistry
)

func (k Kind) String() string {
	switch k {
	case KindHelper:
		return "helper"
	case KindRegistry:
		return "registry"
	default:
		return "unknown"
	}
}

// Artifact is one generated file, ready to be emitted.
type Artifact struct {
	// Owner is the owner type for helpers. Registry artifacts carry the
	// package path and an empty name.
	Owner discover.OwnerID
	Kind  Kind

	Dir      string
	FileName string
	Package  string
	Source   []byte
}

// Path is the file the artifact is written to.
func (a Artifact) Path() string { return filepath.Join(a.Dir, a.FileName) }

// SynthesisError is returned when an artifact cannot be produced. It only
// fails that artifact.
type SynthesisError struct {
	Owner discover.OwnerID
	Kind  Kind
	Err   error
}

func (e *SynthesisError) Error() string {
	return "synth: " + e.Kind.String() + " for " + e.Owner.String() + ": " + e.Err.Error()
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Options configures a Synthesizer.
type Options struct {
	// RuntimeImport is the import path of the bind package generated code
	// refers to. Defaults to DefaultRuntimeImport.
	RuntimeImport string
}

// Synthesizer renders artifacts. It holds no per-pass state and is safe for
// concurrent use.
type Synthesizer struct {
	runtime string
}

func New(opts Options) *Synthesizer {
	rt := opts.RuntimeImport
	if rt == "" {
		rt = DefaultRuntimeImport
	}
	return &Synthesizer{runtime: rt}
}

// RuntimeImport returns the runtime import path in use.
func (s *Synthesizer) RuntimeImport() string { return s.runtime }

// Helper renders the helper artifact of one group.
//
// The emitted code has this shape, members in field order:
//
//	type MainActivityAutobind struct{}
//
//	func NewMainActivityAutobind() bind.Helper { return MainActivityAutobind{} }
//
//	func (MainActivityAutobind) Inject(target any) error {
//		t, ok := target.(*MainActivity)
//		if !ok || t == nil {
//			return bind.TargetTypeError{...}
//		}
//		v0, err := bind.Resolve[*TextView](t, 1001, "testTextView")
//		if err != nil {
//			return err
//		}
//		t.testTextView = v0
//		return nil
//	}
func (s *Synthesizer) Helper(g *discover.Group) (Artifact, error) {
	fail := func(err error) (Artifact, error) {
		return Artifact{}, &SynthesisError{Owner: g.Owner, Kind: KindHelper, Err: err}
	}
	if len(g.Members) == 0 {
		return fail(errEmptyGroup)
	}

	f := jen.NewFilePathName(g.Owner.PkgPath, g.Package)
	conv := newTypeConverter(f, g.Imports)

	// Field types are converted first: they decide which imports exist and
	// which identifiers generated locals must avoid.
	typesByField := make([]*jen.Statement, len(g.Members))
	for i, b := range g.Members {
		t, err := conv.typ(b.TypeExpr)
		if err != nil {
			return fail(errorForField(b.Field, err))
		}
		typesByField[i] = t
	}

	alias := s.importRuntime(f, conv, g.Decls)
	rt := s.runtime

	// Locals must not shadow anything the body refers to: the owner, bare
	// type names and every package qualifier, the runtime's included.
	reserved := map[string]bool{g.Owner.Name: true}
	for name := range conv.idents {
		reserved[name] = true
	}
	for _, ident := range conv.used {
		reserved[ident] = true
	}
	names := newLocals(reserved)
	var (
		target = names.pick("target")
		recv   = names.pick("t")
		ok     = names.pick("ok")
		errV   = names.pick("err")
	)
	vals := make([]string, len(g.Members))
	for i := range g.Members {
		vals[i] = names.pick("v" + strconv.Itoa(i))
	}

	helper := naming.Helper(g.Owner.Name)
	ctor := naming.Constructor(g.Owner.Name)

	header(f, s.helperDigest(g, alias))

	f.Commentf("%s must implement Finder for its fields to be resolved.", g.Owner.Name)
	f.Var().Id("_").Qual(rt, "Finder").Op("=").Parens(jen.Op("*").Id(g.Owner.Name)).Parens(jen.Nil())
	f.Line()

	f.Commentf("%s fills the bound fields of %s.", helper, g.Owner.Name)
	f.Type().Id(helper).Struct()
	f.Line()

	f.Commentf("%s returns the helper for %s.", ctor, g.Owner.Name)
	f.Func().Id(ctor).Params().Qual(rt, "Helper").Block(
		jen.Return(jen.Id(helper).Values()),
	)
	f.Line()

	body := []jen.Code{
		jen.List(jen.Id(recv), jen.Id(ok)).Op(":=").Id(target).Assert(jen.Op("*").Id(g.Owner.Name)),
		jen.If(jen.Op("!").Id(ok).Op("||").Id(recv).Op("==").Nil()).Block(
			jen.Return(jen.Qual(rt, "TargetTypeError").Values(jen.Dict{
				jen.Id("Want"): jen.Lit("*" + g.Package + "." + g.Owner.Name),
				jen.Id("Got"):  jen.Qual(rt, "TypeName").Call(jen.Id(target)),
			})),
		),
	}
	for i, b := range g.Members {
		body = append(body,
			jen.List(jen.Id(vals[i]), jen.Id(errV)).Op(":=").Qual(rt, "Resolve").Types(typesByField[i]).Call(
				jen.Id(recv), jen.Lit(b.ID), jen.Lit(b.Field),
			),
			jen.If(jen.Id(errV).Op("!=").Nil()).Block(jen.Return(jen.Id(errV))),
		)
	}
	for i, b := range g.Members {
		body = append(body, jen.Id(recv).Dot(b.Field).Op("=").Id(vals[i]))
	}
	body = append(body, jen.Return(jen.Nil()))

	f.Commentf("%s assigns every bound field of %s or none of them.", naming.InjectMethod, g.Owner.Name)
	f.Func().Params(jen.Id(helper)).Id(naming.InjectMethod).Params(jen.Id(target).Any()).Error().Block(body...)

	src, err := render(f)
	if err != nil {
		return fail(err)
	}
	return Artifact{
		Owner:    g.Owner,
		Kind:     KindHelper,
		Dir:      g.Dir,
		FileName: naming.HelperFile(g.Owner.Name),
		Package:  g.Package,
		Source:   src,
	}, nil
}

// Package describes the registration artifact of one package.
type Package struct {
	Dir     string
	PkgPath string
	Name    string

	// Owners are owner type names; they are sorted before rendering.
	Owners []string

	// Decls holds the identifiers the package already declares.
	Decls map[string]token.Position
}

// Registry renders the package's RegisterAutobind function.
func (s *Synthesizer) Registry(p Package) (Artifact, error) {
	owner := discover.OwnerID{PkgPath: p.PkgPath}
	if len(p.Owners) == 0 {
		return Artifact{}, &SynthesisError{Owner: owner, Kind: KindRegistry, Err: errEmptyGroup}
	}

	owners := append([]string(nil), p.Owners...)
	sortStrings(owners)

	reserved := map[string]bool{naming.RegisterFunc: true}
	for _, o := range owners {
		reserved[o] = true
		reserved[naming.Constructor(o)] = true
	}
	taken := maps.Clone(reserved)
	for name := range p.Decls {
		taken[name] = true
	}
	alias := runtimeAlias(taken)
	reserved[alias] = true

	f := jen.NewFilePathName(p.PkgPath, p.Name)
	f.ImportAlias(s.runtime, alias)

	header(f, s.registryDigest(p.PkgPath, owners, alias))

	names := newLocals(reserved)
	r, errV := names.pick("r"), names.pick("err")

	body := make([]jen.Code, 0, len(owners)+1)
	for _, o := range owners {
		body = append(body,
			jen.If(
				jen.Id(errV).Op(":=").Qual(s.runtime, "Register").Types(jen.Id(o)).Call(jen.Id(r), jen.Id(naming.Constructor(o))),
				jen.Id(errV).Op("!=").Nil(),
			).Block(jen.Return(jen.Id(errV))),
		)
	}
	body = append(body, jen.Return(jen.Nil()))

	f.Commentf("%s registers the generated helpers of package %s with %s.", naming.RegisterFunc, p.Name, r)
	f.Func().Id(naming.RegisterFunc).Params(jen.Id(r).Op("*").Qual(s.runtime, "Registry")).Error().Block(body...)

	src, err := render(f)
	if err != nil {
		return Artifact{}, &SynthesisError{Owner: owner, Kind: KindRegistry, Err: err}
	}
	return Artifact{
		Owner:    owner,
		Kind:     KindRegistry,
		Dir:      p.Dir,
		FileName: naming.RegistryFile,
		Package:  p.Name,
		Source:   src,
	}, nil
}

// runtimeName is the identifier generated code refers to the runtime by,
// unless the package already uses it.
const runtimeName = "bind"

// importRuntime registers the runtime import on f and returns its alias. A
// field type already referring to the runtime keeps its qualifier. Otherwise
// the alias is "bind", or a variant of "autobind" when "bind" is declared by
// the package, names a field type or qualifies another import.
func (s *Synthesizer) importRuntime(f *jen.File, conv *typeConverter, decls map[string]token.Position) string {
	if alias, ok := conv.used[s.runtime]; ok {
		return alias
	}
	taken := make(map[string]bool, len(decls)+len(conv.idents)+len(conv.used))
	for name := range decls {
		taken[name] = true
	}
	for name := range conv.idents {
		taken[name] = true
	}
	for _, ident := range conv.used {
		taken[ident] = true
	}
	alias := runtimeAlias(taken)
	f.ImportAlias(s.runtime, alias)
	conv.used[s.runtime] = alias
	return alias
}

func runtimeAlias(taken map[string]bool) string {
	if !taken[runtimeName] {
		return runtimeName
	}
	return newLocals(taken).pick("autobind")
}

func header(f *jen.File, digest string) {
	f.HeaderComment(strings.TrimPrefix(naming.Header, "// "))
	f.HeaderComment(DigestPrefix + digest)
}

// DigestPrefix starts the header line carrying the hash of the bindings a
// file was generated from.
const DigestPrefix = "Bindings-SHA256: "

func (s *Synthesizer) helperDigest(g *discover.Group, alias string) string {
	var b strings.Builder
	b.WriteString("helper\n" + s.runtime + "\n" + g.Owner.String() + "\n" + g.Package + "\n")
	if alias != runtimeName {
		b.WriteString("alias " + alias + "\n")
	}
	for _, m := range g.Members {
		b.WriteString(m.Field + " " + strconv.Itoa(m.ID) + " " + m.Type + "\n")
	}
	for _, gi := range g.Imports {
		b.WriteString("import " + gi.Name + " " + gi.Path + "\n")
	}
	return sha256Hex([]byte(b.String()))
}

func (s *Synthesizer) registryDigest(pkgPath string, owners []string, alias string) string {
	in := "registry\n" + s.runtime + "\n" + pkgPath + "\n" + strings.Join(owners, "\n")
	if alias != runtimeName {
		in += "\nalias " + alias
	}
	return sha256Hex([]byte(in))
}

func render(f *jen.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
