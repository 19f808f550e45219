package command

import "time"

// rgbFrameInterval is the minimum spacing between rate-limited RGB
// frames: ~60.5 Hz. Faster delivery saturates the USB link.
const rgbFrameInterval = 16528925 * time.Nanosecond

// throttleRGB sleeps away whatever remains of the current frame interval
// since the device's last RGB frame, then records the new frame
// timestamp. time.Time.Sub saturates instead of wrapping, which gives
// the required overflow clamp for free.
//
// The sleep is blocking and happens on the calling goroutine.
func (e *Engine) throttleRGB() {
	kb := e.dev
	now := e.now()

	elapsed := now.Sub(kb.LastRGB)
	if elapsed > 0 && elapsed < rgbFrameInterval {
		wait := rgbFrameInterval - elapsed
		if e.log != nil {
			e.log.Debug("throttling RGB frame",
				"serial", kb.Serial,
				"elapsed", elapsed,
				"wait", wait,
			)
		}
		e.sleep(wait)
		now = now.Add(wait)
	}

	kb.LastRGB = now
}
