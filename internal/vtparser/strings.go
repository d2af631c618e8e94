package vtparser

import "bytes"

// stepStringState handles the four string-collecting states (osc_string,
// sos_pm_apc_string, dcs_passthrough, dcs_ignore), which share ST/BEL
// termination handling. ST is ESC \\; since ESC may itself be the last byte
// of one Feed() call and '\\' the first byte of the next, termination is
// tracked with the resumable pendingST flag rather than lookahead.
func (p *Parser) stepStringState(b byte) {
	if p.pendingST {
		p.pendingST = false
		if b == '\\' {
			p.terminateString(false)
			return
		}
		// Not a valid ST: the ESC aborts the string: reprocess b fresh.
		p.abortToGround()
		p.step(b)
		return
	}
	if b == 0x1b {
		p.pendingST = true
		return
	}
	if b == 0x18 || b == 0x1a {
		p.abortToGround()
		return
	}
	if b == 0x07 && p.state == stateOSCString {
		p.terminateString(true)
		return
	}
	switch p.state {
	case stateOSCString:
		if len(p.oscBuf) < maxOSCLen {
			p.oscBuf = append(p.oscBuf, b)
		}
	case stateSosPmApcString:
		if len(p.sosBuf) < maxOSCLen {
			p.sosBuf = append(p.sosBuf, b)
		}
	case stateDCSPassthrough:
		p.perf.DcsPut(b)
	case stateDCSIgnore:
		// discard
	}
}

// terminateString dispatches the completed string to the performer and
// returns to ground. bellTerminated is only meaningful for OSC.
func (p *Parser) terminateString(bellTerminated bool) {
	switch p.state {
	case stateOSCString:
		fields := bytes.Split(p.oscBuf, []byte{';'})
		p.perf.OscDispatch(fields, bellTerminated)
	case stateSosPmApcString:
		p.perf.SosPmApcDispatch(p.sosKind, p.sosBuf)
	case stateDCSPassthrough:
		p.perf.DcsUnhook()
	case stateDCSIgnore:
		// nothing to dispatch
	}
	p.abortToGround()
}
