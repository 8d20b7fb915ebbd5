// audio.go - oto v3 audio output for consolevm.
//
// Grounded on audio_backend_oto.go's OtoPlayer: an oto.Player reading from a Go
// io.Reader driven by the emulator's own sample source rather than a system capture
// device. Adapted from that file's single-channel, pull-on-demand ring (ReadSampleFromRing)
// to this console's push model: the DSP produces interleaved stereo samples in bursts as
// StepInstruction runs ahead of real time, so AudioOutput buffers them in a queue that
// Read drains, padding with silence when the emulator falls behind the host's audio
// callback.
package main

import (
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/hiraeth-systems/consolecore/internal/console"
)

// audioSampleRate matches the DSP's own cadence: one stereo sample every 32 audio-CPU
// memory cycles at a 1.024MHz audio clock is 32000Hz.
const audioSampleRate = 32000

// AudioOutput buffers stereo samples produced by a Console and plays them through oto.
type AudioOutput struct {
	ctx    *oto.Context
	player *oto.Player

	mutex   sync.Mutex
	queue   []console.Sample
	started bool
}

// NewAudioOutput opens an oto playback context at the DSP's native sample rate.
func NewAudioOutput() (*AudioOutput, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   audioSampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	out := &AudioOutput{ctx: ctx}
	out.player = ctx.NewPlayer(out)
	return out, nil
}

// PushSamples enqueues freshly generated samples for playback. Call this after every
// batch of Console.StepInstruction calls with Console.DrainAudioSamples's result.
func (a *AudioOutput) PushSamples(samples []console.Sample) {
	if len(samples) == 0 {
		return
	}
	a.mutex.Lock()
	a.queue = append(a.queue, samples...)
	a.mutex.Unlock()
}

// Read implements io.Reader for oto.Player, draining queued samples as interleaved
// little-endian float32 stereo frames and filling any shortfall with silence.
func (a *AudioOutput) Read(p []byte) (int, error) {
	frames := len(p) / 8 // 2 channels * 4 bytes
	a.mutex.Lock()
	n := frames
	if n > len(a.queue) {
		n = len(a.queue)
	}
	take := a.queue[:n]
	a.queue = a.queue[n:]
	a.mutex.Unlock()

	for i, s := range take {
		putFloat32LE(p[i*8:], s.Left)
		putFloat32LE(p[i*8+4:], s.Right)
	}
	for i := n; i < frames; i++ {
		putFloat32LE(p[i*8:], 0)
		putFloat32LE(p[i*8+4:], 0)
	}
	return frames * 8, nil
}

func putFloat32LE(p []byte, f float32) {
	bits := math.Float32bits(f)
	p[0] = byte(bits)
	p[1] = byte(bits >> 8)
	p[2] = byte(bits >> 16)
	p[3] = byte(bits >> 24)
}

// Start begins playback.
func (a *AudioOutput) Start() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if !a.started {
		a.player.Play()
		a.started = true
	}
}

// Stop halts playback, leaving the oto context open for a later Start.
func (a *AudioOutput) Stop() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.started {
		a.player.Pause()
		a.started = false
	}
}

// Close releases the underlying oto player.
func (a *AudioOutput) Close() {
	a.Stop()
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.player != nil {
		_ = a.player.Close()
		a.player = nil
	}
}
