// Package main implements the vcfg CLI.
// It builds method control flow graphs from YAML descriptions and inspects,
// renders and caches them.
package main

import (
	"os"

	"github.com/l3aro/go-vir-cfg/cmd/vcfg/commands"
)

var version = "dev"

func main() {
	root := commands.NewRootCmd()
	root.Flags().BoolP("version", "v", false, "Print version information")
	root.SetVersionTemplate(`vcfg version {{.Version}}
`)
	root.Version = version

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
