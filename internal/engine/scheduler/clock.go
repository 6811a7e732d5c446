package scheduler

import "time"

// Clock provides the current time for tier placement and firing
type Clock func() time.Time
