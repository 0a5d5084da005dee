// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Brings non-48kHz sources up to the rate the opus encoder expects
package resample

// Resampler performs linear interpolation between sample rates on
// interleaved 16-bit PCM.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
}

// New creates a new resampler.
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Resample converts input samples at inputRate into output at outputRate,
// both interleaved. It returns the number of output samples written.
func (r *Resampler) Resample(input []int16, output []int16) int {
	if len(input) == 0 {
		return 0
	}

	inputFrames := len(input) / r.channels
	outputFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outputFrames {
		inputPos := r.position
		inputIdx := int(inputPos)

		if inputIdx >= inputFrames-1 {
			break
		}

		frac := inputPos - float64(inputIdx)

		for ch := 0; ch < r.channels; ch++ {
			sample1 := input[inputIdx*r.channels+ch]
			sample2 := input[(inputIdx+1)*r.channels+ch]

			interpolated := float64(sample1)*(1.0-frac) + float64(sample2)*frac
			output[outIdx*r.channels+ch] = int16(interpolated)
		}

		outIdx++
		r.position += r.ratio
	}

	// Keep only the fractional carry for the next chunk.
	r.position -= float64(int(r.position))

	return outIdx * r.channels
}

// Reset clears the interpolation position.
func (r *Resampler) Reset() {
	r.position = 0.0
}

// OutputSamplesNeeded returns how many output samples the given input will
// produce.
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames) / r.ratio)
	return outputFrames * r.channels
}

// InputSamplesNeeded returns how many input samples are required to fill
// the given number of output samples. The extra frame covers the
// interpolation lookahead.
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames)*r.ratio) + 1
	return inputFrames * r.channels
}
