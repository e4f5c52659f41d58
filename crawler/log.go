package crawler

import "github.com/btcsuite/btclog"

// log is the package-level logger used throughout crawler. By default
// it is disabled, so a caller that never calls UseLogger sees no output.
var log btclog.Logger

// UseLogger sets the package-level logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}

func init() {
	DisableLog()
}

// DisableLog disables all library log output.
func DisableLog() {
	log = btclog.Disabled
}
