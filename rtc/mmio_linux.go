//go:build linux

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
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// MMIO is a register window mapped from a device file such as /dev/mem
type MMIO struct {
	f    *os.File
	data []byte
}

// MapRegisters maps size bytes at base of path. base must be page aligned.
func MapRegisters(path string, base int64, size int) (*MMIO, error) {
	if base%int64(os.Getpagesize()) != 0 {
		return nil, fmt.Errorf("base %#x is not page aligned", base)
	}
	if size <= 0 || size%4 != 0 {
		return nil, fmt.Errorf("invalid window size %d", size)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	data, err := unix.Mmap(int(f.Fd()), base, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mapping %s at %#x: %w", path, base, err)
	}
	return &MMIO{f: f, data: data}, nil
}

func (m *MMIO) word(offset uint32) *uint32 {
	if offset%4 != 0 || uint64(offset)+4 > uint64(len(m.data)) {
		log.Errorf("register offset %#x outside %d byte window", offset, len(m.data))
		return nil
	}
	return (*uint32)(unsafe.Pointer(&m.data[offset]))
}

// Read32 implements Registers
func (m *MMIO) Read32(offset uint32) uint32 {
	if p := m.word(offset); p != nil {
		return atomic.LoadUint32(p)
	}
	return 0
}

// Write32 implements Registers
func (m *MMIO) Write32(offset, value uint32) {
	if p := m.word(offset); p != nil {
		atomic.StoreUint32(p, value)
	}
}

// Close unmaps the window
func (m *MMIO) Close() error {
	if err := unix.Munmap(m.data); err != nil {
		return err
	}
	return m.f.Close()
}
