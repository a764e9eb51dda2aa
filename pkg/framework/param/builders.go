package param

// Preset builders for the parameter shapes phasey exposes.

// MixParameter creates a 0-1 level shown as a percentage
func MixParameter(id uint32, name string, defaultVal float64) *Builder {
	return New(id, name).
		Range(0, 1).
		Default(defaultVal).
		Unit("%").
		Formatter(PercentFormatter, PercentParser)
}

// TimeParameter creates a time parameter in milliseconds
func TimeParameter(id uint32, name string, minMs, maxMs, defaultMs float64) *Builder {
	return New(id, name).
		Range(minMs, maxMs).
		Default(defaultMs).
		Unit("ms").
		Formatter(TimeFormatter, TimeParser)
}

// SemitoneParameter creates a pitch interval parameter
func SemitoneParameter(id uint32, name string, maxSemitones, defaultVal float64) *Builder {
	return New(id, name).
		Range(0, maxSemitones).
		Default(defaultVal).
		Unit("st").
		Formatter(SemitoneFormatter, SemitoneParser)
}

// ToggleParameter creates an on/off switch
func ToggleParameter(id uint32, name string, on bool) *Builder {
	b := New(id, name).Toggle()
	if on {
		b.Default(1)
	}
	return b
}
