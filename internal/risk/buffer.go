package risk

// Config holds the physical constants behind the dynamic safety buffer.
type Config struct {
	BaseSafetyBuffer float64 // meters, default 50
	ReactionTime     float64 // seconds, default 2.5
	MaxAccel         float64 // m/s², default 5
	GPSUncertainty   float64 // meters, default 10
}

// DefaultConfig returns the standard safety constants.
func DefaultConfig() Config {
	return Config{
		BaseSafetyBuffer: 50,
		ReactionTime:     2.5,
		MaxAccel:         5,
		GPSUncertainty:   10,
	}
}

// DynamicSafetyBuffer computes d = base + v_rel*t_react + 0.5*a_max*t_react^2
// + gps_uncertainty. The closed form is shared by Stage 2 (pre-event grid
// queries, using the primary's cruise speed as a conservative stand-in for
// true relative speed) and Stage 3 (the reference scale for the
// separation factor).
func (c Config) DynamicSafetyBuffer(relativeVelocity float64) float64 {
	velocityTerm := relativeVelocity * c.ReactionTime
	accelTerm := 0.5 * c.MaxAccel * c.ReactionTime * c.ReactionTime
	return c.BaseSafetyBuffer + velocityTerm + accelTerm + c.GPSUncertainty
}
