// state.go - exported snapshot of DSP/voice state, for internal/savestate.

package dsp

// VoiceState mirrors a Voice's full internal state, including the decode/envelope
// fields that have no register-level read path.
type VoiceState struct {
	Enabled bool
	Volume  [2]int8

	SamplePitch uint16
	SampleSrc   int

	ADSREnabled  bool
	AdsrStage    AdsrStage
	AttackRate   int
	DecayRate    int
	SustainLevel uint16
	SustainRate  int
	GainRate     int
	GainMode     GainMode

	NoiseEnabled    bool
	PitchModEnabled bool

	EndFlag bool

	BlockAddr    int
	HasBlockAddr bool

	Samples        [16]int16
	PrevSampleData [16]int16

	Counter       uint16
	Envelope      uint16
	PeriodCounter int
}

func (v *Voice) Snapshot() VoiceState {
	return VoiceState{
		Enabled: v.Enabled, Volume: v.Volume,
		SamplePitch: v.SamplePitch, SampleSrc: v.SampleSrc,
		ADSREnabled: v.ADSREnabled, AdsrStage: v.adsrStage,
		AttackRate: v.AttackRate, DecayRate: v.DecayRate,
		SustainLevel: v.SustainLevel, SustainRate: v.SustainRate,
		GainRate: v.GainRate, GainMode: v.GainMode,
		NoiseEnabled: v.NoiseEnabled, PitchModEnabled: v.PitchModEnabled,
		EndFlag:      v.EndFlag,
		BlockAddr:    v.blockAddr,
		HasBlockAddr: v.hasBlockAddr,
		Samples:      v.samples, PrevSampleData: v.prevSampleData,
		Counter: v.counter, Envelope: v.envelope, PeriodCounter: v.periodCounter,
	}
}

func (v *Voice) Restore(s VoiceState) {
	v.Enabled, v.Volume = s.Enabled, s.Volume
	v.SamplePitch, v.SampleSrc = s.SamplePitch, s.SampleSrc
	v.ADSREnabled, v.adsrStage = s.ADSREnabled, s.AdsrStage
	v.AttackRate, v.DecayRate = s.AttackRate, s.DecayRate
	v.SustainLevel, v.SustainRate = s.SustainLevel, s.SustainRate
	v.GainRate, v.GainMode = s.GainRate, s.GainMode
	v.NoiseEnabled, v.PitchModEnabled = s.NoiseEnabled, s.PitchModEnabled
	v.EndFlag = s.EndFlag
	v.blockAddr, v.hasBlockAddr = s.BlockAddr, s.HasBlockAddr
	v.samples, v.prevSampleData = s.Samples, s.PrevSampleData
	v.counter, v.envelope, v.periodCounter = s.Counter, s.Envelope, s.PeriodCounter
}

// State is the serializable snapshot of an entire Dsp.
type State struct {
	Voices    [8]VoiceState
	SampleDir int

	NoiseRate   int
	NoisePeriod int
	NoiseLFSR   uint16
	PrevPitch   int32
}

func (d *Dsp) Snapshot() State {
	s := State{SampleDir: d.SampleDir, NoiseRate: d.noiseRate, NoisePeriod: d.noisePeriod, NoiseLFSR: d.noiseLFSR, PrevPitch: d.prevPitch}
	for i := range d.Voices {
		s.Voices[i] = d.Voices[i].Snapshot()
	}
	return s
}

func (d *Dsp) Restore(s State) {
	d.SampleDir = s.SampleDir
	d.noiseRate, d.noisePeriod, d.noiseLFSR, d.prevPitch = s.NoiseRate, s.NoisePeriod, s.NoiseLFSR, s.PrevPitch
	for i := range d.Voices {
		d.Voices[i].Restore(s.Voices[i])
	}
}
