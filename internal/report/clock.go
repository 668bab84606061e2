package report

import "github.com/jonboulle/clockwork"

// clock stamps the PDF creation date. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for rendering. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
