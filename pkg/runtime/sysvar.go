package runtime

import (
	"time"
)

const (
	defaultLamportsPerByteYear    = 3480
	defaultExemptionThreshold     = 2.0
	defaultAccountStorageOverhead = 128
)

// RentOracle reports the minimum balance an account must hold to persist
type RentOracle interface {
	MinimumBalance(space uint64) uint64
}

// Rent is the default RentOracle:
//
//	(AccountStorageOverhead + space) * LamportsPerByteYear * ExemptionThreshold
type Rent struct {
	LamportsPerByteYear    uint64
	ExemptionThreshold     float64
	AccountStorageOverhead uint64
}

// DefaultRent returns the rent parameters of the reference platform
func DefaultRent() *Rent {
	return &Rent{
		LamportsPerByteYear:    defaultLamportsPerByteYear,
		ExemptionThreshold:     defaultExemptionThreshold,
		AccountStorageOverhead: defaultAccountStorageOverhead,
	}
}

// MinimumBalance implements RentOracle.MinimumBalance
func (r *Rent) MinimumBalance(space uint64) uint64 {
	return uint64(float64((r.AccountStorageOverhead+space)*r.LamportsPerByteYear) * r.ExemptionThreshold)
}

// Clock reports the current time to programs
type Clock interface {
	UnixTimestamp() int64
}

type systemClock struct{}

func (systemClock) UnixTimestamp() int64 {
	return time.Now().Unix()
}

// FixedClock is a Clock that always reports the same time
type FixedClock int64

func (c FixedClock) UnixTimestamp() int64 {
	return int64(c)
}
