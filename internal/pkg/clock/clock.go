package clock

import "time"

// Clock абстрагирует источник текущего времени, чтобы проверки окна
// видимости и свипер были детерминированы в тестах.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System возвращает часы на основе time.Now.
func System() Clock { return systemClock{} }
