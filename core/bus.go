package core

import (
	"github.com/corvidtech/pocketcore/core/addr"
	"github.com/corvidtech/pocketcore/core/cpu"
	"github.com/corvidtech/pocketcore/core/memory"
	"github.com/corvidtech/pocketcore/core/video"
)

// BusInterface defines the interface for component communication
type BusInterface interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	RequestInterrupt(interrupt addr.Interrupt)
}

// Bus provides centralized component communication
type Bus struct {
	CPU *cpu.CPU
	MMU *memory.MMU
	GPU *video.GPU
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Read(address uint16) byte {
	return b.MMU.Read(address)
}

func (b *Bus) Write(address uint16, value byte) {
	b.MMU.Write(address, value)
}

// Tick advances components by the given number of cycles
// Called by opcodes during execution for precise timer/serial timing
func (b *Bus) Tick(cycles int) {
	b.MMU.Tick(cycles)
}

// TickInstruction executes one CPU instruction and ticks all components.
// CPU.Tick already advances the timer/serial/APU via the MMU; GPU is
// ticked here since it isn't reachable from the CPU's own bus handle.
// Returns the number of cycles consumed.
func (b *Bus) TickInstruction() int {
	cycles := b.CPU.Tick()
	b.GPU.Tick(cycles)
	return cycles
}

func (b *Bus) RequestInterrupt(interrupt addr.Interrupt) {
	b.MMU.RequestInterrupt(interrupt)
}

func (b *Bus) ReadBit(index uint8, address uint16) bool {
	return b.MMU.ReadBit(index, address)
}
