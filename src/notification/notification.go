// Package notification shows modal messages the user must acknowledge, such
// as a missing API key at startup.
package notification

import (
	"fmt"

	"screen-translator/src/apperr"
)

const dialogTitle = "Screen Translator"

// ShowStartupError blocks on a modal dialog describing why the app cannot
// start.
func ShowStartupError(err error) {
	ShowBlockingError(dialogTitle, startupMessage(err))
}

func startupMessage(err error) string {
	msg := fmt.Sprintf("Startup check failed: %v", err)
	if apperr.SubkindOf(err) == apperr.SubConfig {
		return msg + "\n\nSet GOOGLE_API_KEY or GOOGLE_API_KEY_FILE in the .env file next to the executable."
	}
	return msg + "\n\nPlease verify your network connectivity."
}
