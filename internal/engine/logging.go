package engine

import (
	"fmt"
	"log"

	"github.com/pinlab/dmdengine/internal/config"
)

// stdLogf is the fallback used when a caller supplies no config.LogCallback,
// matching the ambient stack's choice of bare log.Printf/log.Println over a
// structured logging library for every subsystem.
func stdLogf(severity config.Severity, format string, args ...interface{}) {
	log.Printf("[%s] %s", severity, fmt.Sprintf(format, args...))
}
