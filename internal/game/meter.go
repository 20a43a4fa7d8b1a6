package game

import "daily-quiz-service/internal/domain"

const (
	// MeterMin and MeterMax bound every meter value.
	MeterMin = 0
	MeterMax = 100
	// DefaultStep is the meter change for one correct answer.
	DefaultStep = 20
)

// Variant names the visual skin of a meter.
type Variant string

const (
	// VariantHealth is the demon health bar played for math.
	VariantHealth Variant = "health"
	// VariantFill is the jar played for science and every other subject.
	VariantFill Variant = "fill"
)

// Direction is the way a meter moves on a correct answer.
type Direction int

const (
	Decreasing Direction = iota
	Increasing
)

// Presenter receives the visual signals a meter emits.
type Presenter interface {
	MeterReset(variant Variant, value int)
	MeterAnimate(variant Variant)
	MeterChanged(variant Variant, value int)
	MeterTerminal(variant Variant)
}

// Meter is a bounded game value moved by a fixed step toward a terminal bound.
// Health and fill games are the same meter with opposite directions.
type Meter struct {
	variant   Variant
	direction Direction
	step      int
	value     int
	presenter Presenter
}

// NewMeter builds a meter; a nil presenter discards signals.
func NewMeter(variant Variant, direction Direction, step int, presenter Presenter) *Meter {
	if presenter == nil {
		presenter = nopPresenter{}
	}
	m := &Meter{
		variant:   variant,
		direction: direction,
		step:      step,
		presenter: presenter,
	}
	m.value = m.initial()
	return m
}

// NewHealth is the depleting demon health bar: starts full, each hit removes DefaultStep.
func NewHealth(p Presenter) *Meter {
	return NewMeter(VariantHealth, Decreasing, DefaultStep, p)
}

// NewFill is the filling jar: starts empty, each correct answer adds DefaultStep.
func NewFill(p Presenter) *Meter {
	return NewMeter(VariantFill, Increasing, DefaultStep, p)
}

// ForSubject picks the game played for a subject.
func ForSubject(subject domain.Subject, p Presenter) *Meter {
	if subject == domain.SubjectMath {
		return NewHealth(p)
	}
	return NewFill(p)
}

// Start resets the meter to its initial value and clears visual state.
func (m *Meter) Start() {
	m.value = m.initial()
	m.presenter.MeterReset(m.variant, m.value)
}

// OnCorrectAnswer moves the meter one step and reports whether the terminal bound is reached.
// Once terminal, further calls keep the value clamped and return true.
func (m *Meter) OnCorrectAnswer() bool {
	if m.Terminal() {
		return true
	}
	if m.direction == Decreasing {
		m.value = clamp(m.value - m.step)
	} else {
		m.value = clamp(m.value + m.step)
	}
	m.presenter.MeterAnimate(m.variant)
	m.presenter.MeterChanged(m.variant, m.value)
	if m.Terminal() {
		m.presenter.MeterTerminal(m.variant)
		return true
	}
	return false
}

// OnWrongAnswer leaves the meter untouched.
func (m *Meter) OnWrongAnswer() {}

// Value returns the current meter value in [MeterMin, MeterMax].
func (m *Meter) Value() int {
	return m.value
}

// Terminal reports whether the meter sits on its terminal bound.
func (m *Meter) Terminal() bool {
	if m.direction == Decreasing {
		return m.value <= MeterMin
	}
	return m.value >= MeterMax
}

// Variant returns the visual skin.
func (m *Meter) Variant() Variant {
	return m.variant
}

func (m *Meter) initial() int {
	if m.direction == Decreasing {
		return MeterMax
	}
	return MeterMin
}

func clamp(v int) int {
	if v < MeterMin {
		return MeterMin
	}
	if v > MeterMax {
		return MeterMax
	}
	return v
}

type nopPresenter struct{}

func (nopPresenter) MeterReset(Variant, int)   {}
func (nopPresenter) MeterAnimate(Variant)      {}
func (nopPresenter) MeterChanged(Variant, int) {}
func (nopPresenter) MeterTerminal(Variant)     {}
