package screen

import "github.com/dcosson/wshd/internal/vtparser"

// DcsHook/DcsPut/DcsUnhook implement vtparser.Performer. The engine doesn't
// implement any DCS-addressed protocol (Sixel, DECRQSS, terminfo queries);
// sequences are accepted and their data bytes discarded so a well-formed
// DCS never corrupts parser state, per spec.md §6's minimum-compatibility
// bar (only CSI/OSC/ESC forms are required to have grid effects).
func (e *Engine) DcsHook(params []vtparser.Param, intermediates []byte, private bool, final byte) {
}

func (e *Engine) DcsPut(b byte) {}

func (e *Engine) DcsUnhook() {}

// SosPmApcDispatch implements vtparser.Performer; SOS/PM/APC strings carry
// no grid-affecting semantics in this spec and are discarded.
func (e *Engine) SosPmApcDispatch(kind byte, data []byte) {}
