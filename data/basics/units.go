// Copyright (C) 2022-2026 Kestrel Labs, Inc.
// This file is part of go-kestrel
//
// go-kestrel is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-kestrel is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-kestrel.  If not, see <https://www.gnu.org/licenses/>.

package basics

import (
	"math"
	"time"
)

// Round represents a block number in the chain.
type Round uint64

// TimePoint is a moment in time, in microseconds since the Unix epoch.
// Block timestamps and subjective activation gates use it so that
// comparisons are plain integer comparisons.
type TimePoint int64

// MinTimePoint is the earliest representable TimePoint.
const MinTimePoint TimePoint = math.MinInt64

// TimePointFromTime converts a time.Time to a TimePoint, truncating to
// microsecond precision.
func TimePointFromTime(t time.Time) TimePoint {
	return TimePoint(t.UnixMicro())
}

// Time converts the TimePoint back to a time.Time.
func (tp TimePoint) Time() time.Time {
	return time.UnixMicro(int64(tp))
}

// After reports whether tp is strictly later than other.
func (tp TimePoint) After(other TimePoint) bool {
	return tp > other
}

// String formats the TimePoint in RFC 3339 with microseconds, in UTC.
func (tp TimePoint) String() string {
	return tp.Time().UTC().Format("2006-01-02T15:04:05.000000Z07:00")
}
