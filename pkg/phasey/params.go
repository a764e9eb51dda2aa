package phasey

import (
	"github.com/justyntemme/phasey/pkg/dsp"
	"github.com/justyntemme/phasey/pkg/framework/param"
)

// Parameter IDs
const (
	ParamDry uint32 = iota
	ParamWet
	ParamAttack
	ParamRelease
	ParamBendRange
	ParamFeedback
	ParamPoly
	ParamPortamento
)

func (p *Processor) initializeParameters() {
	err := p.Parameters().Add(
		param.MixParameter(ParamDry, "Dry", dsp.DefaultDry).Build(),
		param.MixParameter(ParamWet, "Wet", dsp.DefaultWet).Build(),
		param.TimeParameter(ParamAttack, "Attack", dsp.MinAttackMs, dsp.MaxAttackMs, dsp.DefaultAttackMs).Build(),
		param.TimeParameter(ParamRelease, "Release", dsp.MinReleaseMs, dsp.MaxReleaseMs, dsp.DefaultReleaseMs).Build(),
		param.SemitoneParameter(ParamBendRange, "Pitch Bend Range", dsp.MaxBendRange, dsp.DefaultBendRange).
			ShortName("Bend").
			Build(),
		param.MixParameter(ParamFeedback, "Feedback", dsp.DefaultFeedback).Build(),
		param.ToggleParameter(ParamPoly, "Poly", true).Build(),
		param.TimeParameter(ParamPortamento, "Portamento", 0, dsp.MaxPortamentoMs, dsp.DefaultPortamentoMs).
			ShortName("Porta").
			Skew(dsp.PortamentoSkew).
			Build(),
	)
	if err != nil {
		// IDs are compile-time constants; a clash is a programming error.
		panic(err)
	}

	reg := p.Parameters()
	p.attack = reg.Get(ParamAttack)
	p.release = reg.Get(ParamRelease)
	p.bendRange = reg.Get(ParamBendRange)
	p.poly = reg.Get(ParamPoly)
	p.portamento = reg.Get(ParamPortamento)

	p.dry = param.NewSmoothedParameter(reg.Get(ParamDry), param.ExponentialSmoothing, 0)
	p.wet = param.NewSmoothedParameter(reg.Get(ParamWet), param.ExponentialSmoothing, 0)
	p.feedback = param.NewSmoothedParameter(reg.Get(ParamFeedback), param.ExponentialSmoothing, 0)
}

// SetParameter sets a parameter by its plain value. It reports false for
// an unknown ID.
func (p *Processor) SetParameter(id uint32, plain float64) bool {
	prm := p.Parameters().Get(id)
	if prm == nil {
		return false
	}
	prm.SetPlainValue(plain)
	return true
}

// Parameter returns a parameter's plain value, or 0 for an unknown ID.
func (p *Processor) Parameter(id uint32) float64 {
	if prm := p.Parameters().Get(id); prm != nil {
		return prm.GetPlainValue()
	}
	return 0
}
