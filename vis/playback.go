package vis

// speedStep is the factor Faster and Slower scale the play speed by.
const speedStep = 1.4

// Playback is the simulated clock. Current wraps around [Min, Max] in both
// directions while playing.
type Playback struct {
	Current float64 // seconds since the Unix epoch
	Min     float64
	Max     float64
	Speed   float64 // simulated seconds per wall-clock second
	Playing bool
}

// NewPlayback returns a playing clock positioned at min.
func NewPlayback(min, max, speed float64) *Playback {
	return &Playback{
		Current: min,
		Min:     min,
		Max:     max,
		Speed:   speed,
		Playing: true,
	}
}

// Advance moves the clock by dt wall-clock seconds.
func (p *Playback) Advance(dt float64) {
	if !p.Playing {
		return
	}
	p.Current += p.Speed * dt
	if p.Current > p.Max {
		p.Current = p.Min
	}
	if p.Current < p.Min {
		p.Current = p.Max
	}
}

// Faster multiplies the speed by 1.4.
func (p *Playback) Faster() { p.Speed *= speedStep }

// Slower divides the speed by 1.4.
func (p *Playback) Slower() { p.Speed /= speedStep }

// Toggle flips between playing and paused.
func (p *Playback) Toggle() { p.Playing = !p.Playing }
