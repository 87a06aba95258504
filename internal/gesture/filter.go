package gesture

// Smooth replaces each channel with a centered moving average of width
// window, in place. It does nothing when window is not positive or larger
// than the buffer size.
//
// Slot i-window/2 receives the mean of the raw samples [i-window+1, i].
// The first window/2 slots keep their raw values and the last window/2
// slots are filled with the mean of the final full window, so both edges
// are approximations. Truncate removes them.
//
// Every mean is taken over raw samples, copied aside first. Averaging in
// place over slots that were already overwritten would smooth the leading
// half of each window twice.
func (b *Buffer) Smooth(window int) {
	if window <= 0 || window > b.size {
		return
	}
	for _, ch := range b.channels() {
		smoothChannel(ch[:b.size], b.scratch[:b.size], window)
	}
}

func smoothChannel(ch, raw []float64, window int) {
	copy(raw, ch)
	n := len(ch)
	half := window / 2
	w := float64(window)

	var sum float64
	for i := 0; i < window; i++ {
		sum += raw[i]
	}
	ch[half] = sum / w

	for i := window; i < n; i++ {
		sum += raw[i] - raw[i-window]
		ch[i-half] = sum / w
	}

	// Trailing slots have no full window of their own.
	for i := n - half; i < n; i++ {
		ch[i] = sum / w
	}
}

// Truncate drops window samples from each end of the buffer, shifting the
// remainder to index 0. It does nothing when 2*window exceeds the size or
// window is negative.
func (b *Buffer) Truncate(window int) {
	if window < 0 || 2*window > b.size {
		return
	}
	n := b.size - 2*window
	for _, ch := range b.channels() {
		copy(ch[:n], ch[window:window+n])
	}
	b.size = n
}
