package device

// PollRate enumerates the USB poll intervals a device can be asked to
// use. Values are ordered slowest to fastest so that a plain > compare
// answers "is this faster than the hardware maximum".
type PollRate uint8

// Poll rates, slowest first.
const (
	PollRate8ms PollRate = iota
	PollRate4ms
	PollRate2ms
	PollRate1ms
	PollRate05ms
	PollRate025ms
	PollRate01ms
)

// pollRateTokens maps the exact command tokens to rates. Anything else
// is rejected.
var pollRateTokens = map[string]PollRate{
	"8":    PollRate8ms,
	"4":    PollRate4ms,
	"2":    PollRate2ms,
	"1":    PollRate1ms,
	"0.5":  PollRate05ms,
	"0.25": PollRate025ms,
	"0.1":  PollRate01ms,
}

// ParsePollRate maps a pollrate command token to a rate. ok is false for
// unrecognised tokens.
func ParsePollRate(token string) (rate PollRate, ok bool) {
	rate, ok = pollRateTokens[token]
	return rate, ok
}

// String returns the interval in milliseconds as it appears on the wire.
func (r PollRate) String() string {
	for token, rate := range pollRateTokens {
		if rate == r {
			return token
		}
	}
	return "unknown"
}
