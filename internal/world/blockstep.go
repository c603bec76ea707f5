package world

// BlockStep - направление шага луча между соседними блоками.
// Шаг по оси Y вниз означает, что луч вошёл в блок через верхнюю грань.
type BlockStep int

const (
	StepXPlus BlockStep = iota
	StepYPlus
	StepZPlus
	StepXMinus
	StepYMinus
	StepZMinus
)

// Opposite возвращает обратное направление
func (s BlockStep) Opposite() BlockStep {
	return (s + 3) % 6
}

// IsVertical сообщает, что шаг сделан по оси Y (вход через верхнюю или нижнюю грань)
func (s BlockStep) IsVertical() bool {
	return s == StepYPlus || s == StepYMinus
}

// Delta возвращает смещение по осям для шага
func (s BlockStep) Delta() (dx, dy, dz int) {
	switch s {
	case StepXPlus:
		return 1, 0, 0
	case StepXMinus:
		return -1, 0, 0
	case StepYPlus:
		return 0, 1, 0
	case StepYMinus:
		return 0, -1, 0
	case StepZPlus:
		return 0, 0, 1
	case StepZMinus:
		return 0, 0, -1
	}
	return 0, 0, 0
}

func (s BlockStep) String() string {
	switch s {
	case StepXPlus:
		return "X_PLUS"
	case StepYPlus:
		return "Y_PLUS"
	case StepZPlus:
		return "Z_PLUS"
	case StepXMinus:
		return "X_MINUS"
	case StepYMinus:
		return "Y_MINUS"
	case StepZMinus:
		return "Z_MINUS"
	default:
		return "UNKNOWN"
	}
}
