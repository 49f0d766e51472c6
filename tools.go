//go:build tools

// Package tools tracks Go-based tool dependencies invoked via go generate.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
