/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package rtc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromCounter(t *testing.T) {
	cases := []struct {
		in   uint64
		want Time
	}{
		{0, Time{}},
		{999999999, Time{Seconds: 0, Nanoseconds: 999999999}},
		{1000000000, Time{Seconds: 1, Nanoseconds: 0}},
		{1653584231123456789, Time{Seconds: 1653584231, Nanoseconds: 123456789}},
	}
	for _, tc := range cases {
		t.Run(tc.want.String(), func(t *testing.T) {
			got := FromCounter(tc.in)
			require.Equal(t, tc.want, got)
			back, err := got.Counter()
			require.NoError(t, err)
			require.Equal(t, tc.in, back)
		})
	}
}

func TestCounterRoundTrip(t *testing.T) {
	for _, ts := range []Time{
		{Seconds: 0, Nanoseconds: 1},
		{Seconds: 42, Nanoseconds: 500000000},
		{Seconds: 0xFFFFFFFF, Nanoseconds: 999999999},
	} {
		ns, err := ts.Counter()
		require.NoError(t, err)
		require.Equal(t, ts, FromCounter(ns))
	}
}

func TestCounterNegativeNanoseconds(t *testing.T) {
	_, err := Time{Seconds: 1, Nanoseconds: -1}.Counter()
	require.ErrorIs(t, err, ErrInvalidTime)
}

func TestTimeFromDuration(t *testing.T) {
	ts, err := TimeFromDuration(1500 * time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, Time{Seconds: 1, Nanoseconds: 500000000}, ts)

	_, err = TimeFromDuration(-time.Second)
	require.ErrorIs(t, err, ErrInvalidTime)
}

func TestTimeString(t *testing.T) {
	require.Equal(t, "12.000000034", Time{Seconds: 12, Nanoseconds: 34}.String())
	require.Equal(t, time.Unix(12, 34), Time{Seconds: 12, Nanoseconds: 34}.Time())
}
