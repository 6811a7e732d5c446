package scheduler

import (
	"maps"
	"time"

	"github.com/kode4food/runq/pkg/api"
)

type (
	// Tier is the horizon bucket a record currently sits in
	Tier string

	// Record is one deferred script start
	Record struct {
		ID          string
		At          time.Time
		Script      api.ScriptRef
		Definitions api.Definitions
		Context     map[string]string
		Tier        Tier

		index int
	}
)

const (
	TierNear   Tier = "near"
	TierMedium Tier = "medium"
	TierFar    Tier = "far"
)

const (
	// NearHorizon is the remaining delay under which records fire from
	// the near tier
	NearHorizon = 2 * time.Minute

	// MediumHorizon is the remaining delay under which records wait in
	// the medium tier
	MediumHorizon = 2 * time.Hour
)

// TierFor picks the tier for a record due at at, as seen from now
func TierFor(at, now time.Time) Tier {
	switch remaining := at.Sub(now); {
	case remaining < NearHorizon:
		return TierNear
	case remaining < MediumHorizon:
		return TierMedium
	default:
		return TierFar
	}
}

// Clone returns an independent copy of the record
func (r *Record) Clone() *Record {
	res := *r
	res.Definitions = r.Definitions.Clone()
	res.Context = maps.Clone(r.Context)
	res.index = -1
	return &res
}
