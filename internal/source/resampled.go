// ABOUTME: Resampling wrapper around an audio source
// ABOUTME: Converts any source to the sample rate the opus path requires
package source

import (
	"io"

	"github.com/Voicecast-Project/voicecast-go/pkg/audio/resample"
)

// ResampledSource wraps a Source and converts it to a target sample rate.
type ResampledSource struct {
	source      Source
	resampler   *resample.Resampler
	targetRate  int
	inputBuffer []int16
}

// NewResampledSource creates a resampling wrapper around an audio source.
// Sources already at the target rate should be used directly.
func NewResampledSource(src Source, targetRate int) *ResampledSource {
	return &ResampledSource{
		source:     src,
		resampler:  resample.New(src.SampleRate(), targetRate, src.Channels()),
		targetRate: targetRate,
	}
}

func (r *ResampledSource) Read(samples []int16) (int, error) {
	needed := r.resampler.InputSamplesNeeded(len(samples))
	if cap(r.inputBuffer) < needed {
		r.inputBuffer = make([]int16, needed)
	}
	buf := r.inputBuffer[:needed]

	n, err := r.source.Read(buf)
	if err != nil && err != io.EOF {
		return 0, err
	}

	return r.resampler.Resample(buf[:n], samples), nil
}

func (r *ResampledSource) SampleRate() int { return r.targetRate }
func (r *ResampledSource) Channels() int   { return r.source.Channels() }
func (r *ResampledSource) Metadata() (string, string, string) {
	return r.source.Metadata()
}
func (r *ResampledSource) Close() error {
	return r.source.Close()
}
