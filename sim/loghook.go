package sim

import (
	"log"
)

// LogHookBase provides the logger for hooks that print what they observe.
type LogHookBase struct {
	*log.Logger
}
