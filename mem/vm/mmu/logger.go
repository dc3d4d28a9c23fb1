package mmu

import (
	"log"

	"github.com/sarchlab/segmmu/mem/vm"
	"github.com/sarchlab/segmmu/sim"
)

// TranslationLogger is a hook that prints every translation result.
type TranslationLogger struct {
	sim.LogHookBase
}

// NewTranslationLogger returns a new TranslationLogger which will write into
// the logger.
func NewTranslationLogger(logger *log.Logger) *TranslationLogger {
	h := new(TranslationLogger)
	h.Logger = logger

	return h
}

// Func writes the translation result into the logger.
func (h *TranslationLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosTranslationDone {
		return
	}

	result, ok := ctx.Item.(Result)
	if !ok {
		return
	}

	s, p, w := vm.Decode(result.VAddr)
	if result.Err != nil {
		h.Logger.Printf("%s, %s (s=%d p=%d w=%d): %v",
			result.ID, result, s, p, w, result.Err)
		return
	}

	h.Logger.Printf("%s, %s (s=%d p=%d w=%d)", result.ID, result, s, p, w)
}
