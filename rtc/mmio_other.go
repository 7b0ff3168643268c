//go:build !linux

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

import "fmt"

// MMIO is a register window mapped from a device file. Only supported on linux.
type MMIO struct{}

// MapRegisters is not supported on this platform
func MapRegisters(path string, _ int64, _ int) (*MMIO, error) {
	return nil, fmt.Errorf("mapping %s: not supported on this platform", path)
}

// Read32 implements Registers
func (m *MMIO) Read32(uint32) uint32 { return 0 }

// Write32 implements Registers
func (m *MMIO) Write32(uint32, uint32) {}

// Close is a no-op
func (m *MMIO) Close() error { return nil }
