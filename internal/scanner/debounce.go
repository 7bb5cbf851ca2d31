package scanner

import "time"

// Debouncer решает, можно ли выпустить сигнал, по времени последнего выпуска на том же таймфрейме.
// Собственного состояния не хранит.
type Debouncer struct {
	Cooldown time.Duration
}

// Allow разрешает выпуск, если с прошлого сигнала прошло строго больше Cooldown (секунды)
func (d Debouncer) Allow(candidate, lastEmitted int64) bool {
	return candidate-lastEmitted > int64(d.Cooldown/time.Second)
}
