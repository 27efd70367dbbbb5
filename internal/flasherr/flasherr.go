// Package flasherr maps flashing error codes to user-facing text. The code
// set is closed; everything else in the application reports failures through
// one of these codes so the text stays in one place.
package flasherr

import "fmt"

// Code identifies a flashing failure class.
type Code int

const (
	// Timeout means the flash operation did not finish in time.
	Timeout Code = iota + 1
	// ShellDied means the privileged shell exited mid-operation.
	ShellDied
	// NoRootAccess means privileged access was denied or unavailable.
	NoRootAccess
	// InvalidArchive means the package is not a flashable installer archive.
	// An optional detail argument is appended to the message.
	InvalidArchive
	// NotFlashableInApp means the archive must be flashed via recovery.
	NotFlashableInApp
	// InstallerNeedsUpdate means the module requires a newer installer.
	InstallerNeedsUpdate
)

// Callback receives flashing failures as they happen.
type Callback interface {
	OnError(code Code, message string)
}

// Message returns the user-facing text for a code. InvalidArchive accepts an
// optional detail argument; unknown codes fall back to a generic message
// carrying the numeric code.
func Message(code Code, args ...any) string {
	switch code {
	case Timeout:
		return "The operation timed out"
	case ShellDied:
		return "The privileged shell died unexpectedly"
	case NoRootAccess:
		return "Root access could not be obtained"
	case InvalidArchive:
		message := "The file is not a flashable archive"
		if len(args) > 0 {
			message += fmt.Sprintf("\n%v", args[0])
		}
		return message
	case NotFlashableInApp:
		return "This archive can only be flashed via recovery"
	case InstallerNeedsUpdate:
		return "Please update the installer app and try again"
	default:
		return fmt.Sprintf("Flashing failed with error %d", code)
	}
}

// Trigger formats the message for code and delivers it to the callback.
func Trigger(cb Callback, code Code, args ...any) {
	cb.OnError(code, Message(code, args...))
}
