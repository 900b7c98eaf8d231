// Command alphactl scores, batches and calibrates against a local store
// without running the HTTP server.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
