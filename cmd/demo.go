package cmd

import (
	_ "embed"
)

// demoDefinitions is used when no --config is given.
//
//go:embed demo_definitions.yaml
var demoDefinitions string
