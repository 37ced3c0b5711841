//go:build !windows

package notification

import (
	"fmt"
	"log"
	"os"
)

// ShowBlockingError prints the message to stderr on platforms without a
// native dialog.
func ShowBlockingError(title, message string) {
	log.Printf("%s: %s", title, message)
	fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
}
