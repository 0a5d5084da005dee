// ABOUTME: Sample rate conversion for 16-bit PCM streams
// ABOUTME: Feeds sources at arbitrary rates into the 48kHz opus encode path
// Package resample converts interleaved 16-bit PCM between sample rates
// using linear interpolation.
//
// Its main job is bringing file sources at arbitrary rates (44.1kHz CDs,
// 22.05kHz voice recordings) up or down to the 48kHz the opus encoder
// expects. The resampler is stateful: it carries the fractional read
// position across calls so consecutive chunks stay phase-aligned.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	n := r.Resample(inputSamples, outputSamples)
package resample
