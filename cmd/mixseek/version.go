package main

// version is set at build time via -ldflags, matching the teacher's
// convention of a package-level build-stamped variable.
var version = "dev"

// VersionCmd prints version information.
type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	printVersion()
	return nil
}
