//go:build mage

// Package main provides build targets for the routenest project using Mage.
//
// Usage:
//
//	mage build           Compile the routenest binary to bin/
//	mage test            Run all tests (unit + integration)
//	mage testUnit        Run only unit tests (exclude integration)
//	mage testIntegration Run only integration tests (builds first)
//	mage cover           Write a unit test coverage profile
//	mage lint            Run golangci-lint
//	mage mock            Serve the mock API with seed data
//	mage clean           Remove build artifacts
//	mage install         Install routenest to GOPATH/bin
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName  = "routenest"
	binaryDir   = "bin"
	cmdDir      = "./cmd/routenest"
	versionVar  = "github.com/harrysoftwarecorp/route-nest/internal/cli.Version"
	coverFile   = "coverage.out"
	defaultAddr = "localhost:8000"
)

// ldflags stamps the version from VERSION when it is set.
func ldflags() string {
	if v := os.Getenv("VERSION"); v != "" {
		return fmt.Sprintf("-X %s=%s", versionVar, strings.TrimPrefix(v, "v"))
	}
	return ""
}

// Build compiles the routenest binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-v", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests (unit and integration).
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// unitPackages lists every package outside tests/.
func unitPackages() ([]string, error) {
	out, err := sh.Output("go", "list", "./...")
	if err != nil {
		return nil, err
	}
	var pkgs []string
	for _, pkg := range strings.Split(out, "\n") {
		if pkg != "" && !strings.Contains(pkg, "/tests/") && !strings.HasSuffix(pkg, "/tests") {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs, nil
}

// TestUnit runs only unit tests, excluding the tests/ directory.
func TestUnit() error {
	pkgs, err := unitPackages()
	if err != nil {
		return err
	}
	if len(pkgs) == 0 {
		fmt.Println("No unit test packages found.")
		return nil
	}
	return sh.RunV("go", append([]string{"test", "-race"}, pkgs...)...)
}

// TestIntegration builds first, then runs only integration tests.
func TestIntegration() error {
	mg.Deps(Build)
	return sh.RunV("go", "test", "./tests/...")
}

// Cover writes a coverage profile of the unit tests and prints the total.
func Cover() error {
	pkgs, err := unitPackages()
	if err != nil {
		return err
	}
	args := append([]string{"test", "-coverprofile=" + coverFile}, pkgs...)
	if err := sh.RunV("go", args...); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func="+coverFile)
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Mock serves the development API from an in-memory database. MOCK_ADDR
// overrides the listen address.
func Mock() error {
	mg.Deps(Build)
	addr := os.Getenv("MOCK_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	return sh.RunV(filepath.Join(binaryDir, binaryName), "mock", "serve", "--memory", "--addr", addr)
}

// Clean removes build artifacts.
func Clean() error {
	for _, p := range []string{binaryDir, coverFile} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return sh.RunV("go", "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	if err := sh.Copy(dst, src); err != nil {
		return err
	}
	return os.Chmod(dst, 0o755)
}
