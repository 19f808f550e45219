package command

import "runtime"

// Command identifies the keyword currently governing token
// interpretation. CmdNone means no command is active.
type Command int

// The command vocabulary. Order matches the wire-facing string table
// below; CmdNone is implicit and has no string.
const (
	CmdNone Command = iota

	CmdDelay
	CmdMode
	CmdSwitch
	CmdLayout
	CmdAccel
	CmdScrollSpeed
	CmdNotifyOn
	CmdNotifyOff
	CmdFPS
	CmdDither

	CmdHWLoad
	CmdHWSave
	CmdFWUpdate
	CmdPollRate

	CmdActive
	CmdIdle

	CmdErase
	CmdEraseProfile
	CmdName
	CmdProfileName
	CmdID
	CmdProfileID

	CmdRGB
	CmdHWAnim
	CmdIOff
	CmdIOn
	CmdIAuto

	CmdBind
	CmdUnbind
	CmdRebind
	CmdMacro

	CmdDPI
	CmdDPISel
	CmdLift
	CmdSnap

	CmdNotify
	CmdINotify
	CmdGet

	CmdReset

	cmdCount
)

var cmdStrings = [cmdCount]string{
	CmdDelay:        "delay",
	CmdMode:         "mode",
	CmdSwitch:       "switch",
	CmdLayout:       "layout",
	CmdAccel:        "accel",
	CmdScrollSpeed:  "scrollspeed",
	CmdNotifyOn:     "notifyon",
	CmdNotifyOff:    "notifyoff",
	CmdFPS:          "fps",
	CmdDither:       "dither",
	CmdHWLoad:       "hwload",
	CmdHWSave:       "hwsave",
	CmdFWUpdate:     "fwupdate",
	CmdPollRate:     "pollrate",
	CmdActive:       "active",
	CmdIdle:         "idle",
	CmdErase:        "erase",
	CmdEraseProfile: "eraseprofile",
	CmdName:         "name",
	CmdProfileName:  "profilename",
	CmdID:           "id",
	CmdProfileID:    "profileid",
	CmdRGB:          "rgb",
	CmdHWAnim:       "hwanim",
	CmdIOff:         "ioff",
	CmdIOn:          "ion",
	CmdIAuto:        "iauto",
	CmdBind:         "bind",
	CmdUnbind:       "unbind",
	CmdRebind:       "rebind",
	CmdMacro:        "macro",
	CmdDPI:          "dpi",
	CmdDPISel:       "dpisel",
	CmdLift:         "lift",
	CmdSnap:         "snap",
	CmdNotify:       "notify",
	CmdINotify:      "inotify",
	CmdGet:          "get",
	CmdReset:        "reset",
}

// hostIsDarwin gates the darwin-only keywords at lookup time.
var hostIsDarwin = runtime.GOOS == "darwin"

// String returns the command's wire keyword, or "" for CmdNone.
func (c Command) String() string {
	if c <= CmdNone || c >= cmdCount {
		return ""
	}
	return cmdStrings[c]
}

// Lookup resolves a token to a command by exact comparison against the
// vocabulary. Unmatched tokens resolve to CmdNone. The layout, accel and
// scrollspeed keywords exist only on darwin hosts; elsewhere they resolve
// to CmdNone as if absent from the vocabulary.
func Lookup(token string) Command {
	return lookup(token, hostIsDarwin)
}

func lookup(token string, darwin bool) Command {
	for c := CmdNone + 1; c < cmdCount; c++ {
		if cmdStrings[c] == token {
			if !darwin && (c == CmdLayout || c == CmdAccel || c == CmdScrollSpeed) {
				return CmdNone
			}
			return c
		}
	}
	return CmdNone
}

// standalone reports whether the keyword is a complete instruction in
// itself: it sets the active command and is processed immediately as its
// own trigger instead of being consumed.
func (c Command) standalone() bool {
	switch c {
	case CmdSwitch, CmdHWLoad, CmdHWSave, CmdActive, CmdIdle, CmdErase, CmdEraseProfile:
		return true
	default:
		return false
	}
}

// bindFamily reports whether the command depends on the bind feature.
func (c Command) bindFamily() bool {
	switch c {
	case CmdBind, CmdUnbind, CmdRebind, CmdMacro, CmdDelay:
		return true
	default:
		return false
	}
}

// allowedDuringFWFault reports whether the command may run while the
// device needs a firmware update.
func (c Command) allowedDuringFWFault() bool {
	switch c {
	case CmdFWUpdate, CmdNotifyOn, CmdNotifyOff, CmdReset:
		return true
	default:
		return false
	}
}
