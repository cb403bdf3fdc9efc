package usecase

import "time"

// SetClock replaces the clock used to date payments.
func (uc *PaymentUseCase) SetClock(clock func() time.Time) {
	uc.clock = clock
}
