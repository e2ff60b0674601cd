package auth

import (
	"time"

	"github.com/google/uuid"
)

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}
