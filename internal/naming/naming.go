// Package naming holds the naming convention shared by discovery, synthesis,
// emission and the bind runtime. Changing anything here changes the contract
// generated code is found by.
package naming

import (
	"bytes"
	"strings"

	"github.com/sghaida/autobind/bind"
)

const (
	// Generator is the tool name written into generated headers.
	Generator = "autobind"

	// Header is the first line of every generated file.
	Header = "// Code generated by autobind; DO NOT EDIT."

	// HelperFileSuffix is appended to the owner name to form a helper's file name.
	HelperFileSuffix = "_autobind.gen.go"

	// RegistryFile is the per-package registration artifact.
	RegistryFile = "zz_autobind_registry.gen.go"

	// RegisterFunc is the generated per-package registration function.
	RegisterFunc = "RegisterAutobind"

	// InjectMethod is the single method of the helper contract.
	InjectMethod = "Inject"
)

// Helper returns the helper type name for an owner type name.
func Helper(owner string) string { return owner + bind.Suffix }

// Constructor returns the helper constructor name for an owner type name.
func Constructor(owner string) string { return "New" + Helper(owner) }

// HelperFile returns the helper's file name for an owner type name.
func HelperFile(owner string) string { return owner + HelperFileSuffix }

// OwnerFromFile reverses HelperFile.
func OwnerFromFile(name string) (string, bool) {
	owner, ok := strings.CutSuffix(name, HelperFileSuffix)
	if !ok || owner == "" {
		return "", false
	}
	return owner, true
}

// IsOutputName reports whether name could be a file written by the generator.
func IsOutputName(name string) bool {
	if name == RegistryFile {
		return true
	}
	_, ok := OwnerFromFile(name)
	return ok
}

// IsGenerated reports whether src starts with the generator's header.
func IsGenerated(src []byte) bool {
	return bytes.HasPrefix(src, []byte(Header))
}
