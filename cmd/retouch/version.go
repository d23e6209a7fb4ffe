package main

import (
	"fmt"
	"io"
	"os"
)

type versionCmd struct {
	*root
	out io.Writer
}

func (v *versionCmd) Template() string { return "version.txt" }

func (v *versionCmd) Run() error {
	out := v.out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "%s version %s", v.program, version)
	if commit != "" {
		fmt.Fprintf(out, " (%s", commit)
		if date != "" {
			fmt.Fprintf(out, ", %s", date)
		}
		fmt.Fprint(out, ")")
	}
	fmt.Fprintln(out)
	return nil
}
