// Command anf parses, evaluates, and infers over function descriptors.
//
// Descriptors are JSONC documents in the tagged-tree form accepted by
// the adapter/json package.
//
// Usage:
//
//	anf parse descriptor.json
//	anf eval descriptor.json --args '[2, 3]'
//	anf infer descriptor.json
//	anf eval descriptor.json --args '[5]' --verbose
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
