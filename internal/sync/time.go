package sync

// Calibrator maps client-reported update times onto the server
// timeline. The constant offset between the two clocks is estimated
// from the client's reported current time, and every calibrated value
// is clamped into the open interval (clientSyncAt, now) so updates
// from this call sort strictly after the client's previous cursor and
// strictly before the new one.
type Calibrator struct {
	now          int64
	clientSyncAt int64
	diff         int64
}

// NewCalibrator builds a calibrator for one sync call. All arguments
// are Unix milliseconds; clientTime is the client's own current time
// as reported in the request.
func NewCalibrator(now, clientTime, clientSyncAt int64) *Calibrator {
	return &Calibrator{
		now:          now,
		clientSyncAt: clientSyncAt,
		diff:         now - clientTime,
	}
}

// Calibrate corrects a client update timestamp for clock skew and
// clamps it into (clientSyncAt, now).
func (c *Calibrator) Calibrate(t int64) int64 {
	t += c.diff

	if t > c.now-1 {
		t = c.now - 1
	}
	if t < c.clientSyncAt+1 {
		t = c.clientSyncAt + 1
	}

	return t
}
