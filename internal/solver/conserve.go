package solver

import "github.com/san-kum/liquidlab/internal/field"

// massEps is the empty-channel threshold: below this there is nothing to
// rescale and dividing would only manufacture NaN.
const massEps = 1e-12

// conserveDye restores each channel's total mass to its target after the
// lossy interpolation of advection and diffusion. The target is the mass
// recorded before those operations plus whatever the perturbation engine
// injected this step. Empty channels are skipped. Returns the post-scale
// channel sums.
func conserveDye(dye *field.Dye, target [field.NumChannels]float64) [field.NumChannels]float64 {
	sums := dye.ChannelSums()
	for c := 0; c < field.NumChannels; c++ {
		if sums[c] <= massEps {
			continue
		}
		dye.ScaleChannel(c, target[c]/sums[c])
		sums[c] = target[c]
	}
	return sums
}
