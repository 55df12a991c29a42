package core

import (
	"fmt"
	"io/ioutil"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/corvidtech/pocketcore/core/addr"
	"github.com/corvidtech/pocketcore/core/audio"
	"github.com/corvidtech/pocketcore/core/backend"
	"github.com/corvidtech/pocketcore/core/cpu"
	"github.com/corvidtech/pocketcore/core/debug"
	"github.com/corvidtech/pocketcore/core/memory"
	"github.com/corvidtech/pocketcore/core/timing"
	"github.com/corvidtech/pocketcore/core/video"
)

// DebuggerState represents the current debugger mode
type DebuggerState int

const (
	DebuggerRunning   DebuggerState = iota // Normal execution
	DebuggerPaused                         // Paused, waiting for commands
	DebuggerStep                           // Execute one instruction then pause
	DebuggerStepFrame                      // Execute one frame then pause
)

// Emulator represents the root struct and entry point for running the emulation
type Emulator struct {
	cpu *cpu.CPU
	gpu *video.GPU
	mem *memory.MMU

	// Debugger state
	debuggerState    DebuggerState
	debuggerMutex    sync.RWMutex
	stepRequested    bool
	frameRequested   bool
	instructionCount uint64
	frameCount       uint64

	// savePath is where battery-backed cartridge RAM is persisted on
	// Close. Empty when the emulator wasn't constructed from a ROM file.
	savePath string

	limiter timing.Limiter

	// Completion detection, for test ROMs (e.g. blargg's suite) that signal
	// "done" by spinning on a fixed PC rather than exiting.
	completionMaxFrames    uint64
	completionMinLoopCount int
	lastLoopPC             uint16
	loopCount              int
}

func (e *Emulator) init(mem *memory.MMU) {
	e.cpu = cpu.New(mem)
	e.gpu = video.NewGpu(mem)
	e.mem = mem
	e.limiter = timing.NewNoOpLimiter()

	// DIV's internal 16-bit counter seed matches a cold-boot DMG; timer
	// advancement itself happens inside cpu.Tick's bus.Tick call, not here.
	mem.SetTimerSeed(0xABCC)
}

// LoadBootROM installs a 256-byte boot program ahead of cartridge bank 0
// and resets PC to 0 so it executes first, per the boot-handoff sequence.
func (e *Emulator) LoadBootROM(data []byte) error {
	if err := e.mem.LoadBootROM(data); err != nil {
		return Classify(KindBootROM, err)
	}
	e.cpu.SetPC(0x0000)
	return nil
}

// New creates a new emulator instance
func New() *Emulator {
	e := &Emulator{}
	e.init(memory.NewWithCartridge(memory.NewCartridge()))

	return e
}

// NewWithFile creates a new emulator instance and loads the file specified into it.
func NewWithFile(path string) (*Emulator, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, Classify(KindUnreadableROM, err)
	}

	slog.Debug("Loaded ROM data", "size", len(data))

	cart := memory.NewCartridgeWithData(data)
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	cart.SetFileStem(stem)

	e := &Emulator{}
	e.init(memory.NewWithCartridge(cart))

	if e.mem.HasBattery() {
		e.savePath = filepath.Join(filepath.Dir(path), stem+".sav")
		if saved, err := ioutil.ReadFile(e.savePath); err == nil {
			e.mem.LoadRAM(saved)
			slog.Debug("Loaded battery save", "path", e.savePath, "size", len(saved))
		} else if !os.IsNotExist(err) {
			slog.Warn("Failed to read battery save", "path", e.savePath, "err", err)
		}
	}

	return e, nil
}

// Close persists any battery-backed cartridge RAM to disk. It is a no-op
// for cartridges without a battery or when the emulator wasn't loaded
// from a ROM file. Safe to call multiple times.
func (e *Emulator) Close() error {
	if e.savePath == "" {
		return nil
	}
	ram := e.mem.SaveRAM()
	if ram == nil {
		return nil
	}
	return ioutil.WriteFile(e.savePath, ram, 0644)
}

func (e *Emulator) RunUntilFrame() {
	e.debuggerMutex.RLock()
	state := e.debuggerState
	e.debuggerMutex.RUnlock()

	// Handle paused state - don't execute anything
	if state == DebuggerPaused {
		return
	}

	// Handle step instruction - execute one instruction then pause
	if state == DebuggerStep {
		e.debuggerMutex.Lock()
		if e.stepRequested {
			e.stepRequested = false
			e.debuggerMutex.Unlock()

			// Execute one CPU instruction
			oldPC := e.cpu.GetPC()
			cycles := e.cpu.Tick()
			e.gpu.Tick(cycles)
			e.instructionCount++

			// Log the executed instruction
			slog.Debug("Step executed", "pc", fmt.Sprintf("0x%04X", oldPC), "new_pc", fmt.Sprintf("0x%04X", e.cpu.GetPC()))

			// Pause after execution
			e.SetDebuggerState(DebuggerPaused)
		} else {
			e.debuggerMutex.Unlock()
		}
		return
	}

	// Handle step frame - execute one frame then pause
	if state == DebuggerStepFrame {
		e.debuggerMutex.Lock()
		frameRequested := e.frameRequested
		if frameRequested {
			e.frameRequested = false
		}
		e.debuggerMutex.Unlock()

		if frameRequested {
			// Execute one full frame
			total := 0
			for {
				cycles := e.cpu.Tick()
				e.gpu.Tick(cycles)
				e.instructionCount++
				total += cycles

				if total >= 70224 {
					break
				}
			}
			e.frameCount++
			slog.Debug("Frame step completed", "frame", e.frameCount, "instructions", e.instructionCount)
			e.SetDebuggerState(DebuggerPaused)
		}
		return
	}

	// Normal execution (DebuggerRunning)
	total := 0
	for {
		cycles := e.cpu.Tick()
		e.gpu.Tick(cycles)
		e.instructionCount++

		total += cycles

		if total >= 70224 {
			e.frameCount++
			// Log every 60 frames (once per second at 60 FPS) only when running
			if e.frameCount%60 == 0 {
				slog.Debug("Frame completed", "frame", e.frameCount, "pc", fmt.Sprintf("0x%04X", e.cpu.GetPC()))
			}
			e.limiter.WaitForNextFrame()
			return
		}
	}
}

// ConfigureCompletionDetection arms RunUntilComplete's termination logic:
// it stops after maxFrames regardless, or earlier once the CPU's
// end-of-frame PC has stayed the same for minLoopCount consecutive frames,
// the standard signal test ROMs such as blargg's suite give for "test
// finished" (they spin on a tight self-jump instead of halting).
func (e *Emulator) ConfigureCompletionDetection(maxFrames uint64, minLoopCount int) {
	e.completionMaxFrames = maxFrames
	e.completionMinLoopCount = minLoopCount
	e.lastLoopPC = 0
	e.loopCount = 0
}

// RunUntilComplete runs frames until completion detection (configured via
// ConfigureCompletionDetection) fires or completionMaxFrames is reached.
func (e *Emulator) RunUntilComplete() {
	for e.frameCount < e.completionMaxFrames {
		e.RunUntilFrame()

		pc := e.cpu.GetPC()
		if pc == e.lastLoopPC {
			e.loopCount++
			if e.completionMinLoopCount > 0 && e.loopCount >= e.completionMinLoopCount {
				return
			}
		} else {
			e.lastLoopPC = pc
			e.loopCount = 0
		}
	}
}

// SetFrameLimiter installs the pacing strategy used by RunUntilFrame's
// normal-execution path. Passing nil disables pacing, matching headless and
// benchmark use where frames should run back-to-back.
func (e *Emulator) SetFrameLimiter(limiter timing.Limiter) {
	if limiter == nil {
		e.limiter = timing.NewNoOpLimiter()
		return
	}
	e.limiter = limiter
}

// ResetFrameTiming resets the installed frame limiter's internal clock,
// useful after a debugger pause so the next frame isn't rushed to catch up.
func (e *Emulator) ResetFrameTiming() {
	e.limiter.Reset()
}

// GetAudioProvider exposes the memory bus's APU for backends that render or
// debug audio output.
func (e *Emulator) GetAudioProvider() audio.Provider {
	return e.mem.APU
}

// ExtractDebugData snapshots CPU, memory, OAM and VRAM state for debug
// overlays and visualizers. Safe to call at any point in the frame.
func (e *Emulator) ExtractDebugData() *debug.CompleteDebugData {
	if e.cpu == nil || e.mem == nil {
		return nil
	}

	line := int(e.mem.ReadSupervisor(addr.LY))
	spriteHeight := 8
	if e.mem.ReadBit(2, addr.LCDC) {
		spriteHeight = 16
	}

	pc := e.cpu.GetPC()
	const snapshotLen = 200
	size := snapshotLen
	if uint32(pc)+uint32(snapshotLen) > 0x10000 {
		size = int(0x10000 - uint32(pc))
	}
	snapshot := make([]uint8, size)
	for i := range snapshot {
		snapshot[i] = e.mem.ReadSupervisor(pc + uint16(i))
	}

	return &debug.CompleteDebugData{
		OAM:  debug.ExtractOAMDataFromReader(e.mem, line, spriteHeight),
		VRAM: debug.ExtractVRAMDataFromReader(e.mem),
		CPU: &debug.CPUState{
			A: e.cpu.GetA(), F: e.cpu.GetF(),
			B: e.cpu.GetB(), C: e.cpu.GetC(),
			D: e.cpu.GetD(), E: e.cpu.GetE(),
			H: e.cpu.GetH(), L: e.cpu.GetL(),
			SP:     e.cpu.GetSP(),
			PC:     pc,
			IME:    e.cpu.GetIME(),
			Cycles: e.cpu.GetCycles(),
		},
		Memory:          &debug.MemorySnapshot{StartAddr: pc, Bytes: snapshot},
		DebuggerState:   debug.DebuggerState(e.GetDebuggerState()),
		InterruptEnable: e.mem.ReadSupervisor(addr.IE),
		InterruptFlags:  e.mem.ReadSupervisor(addr.IF),
		SpriteVis:       debug.ExtractSpriteData(e.mem, uint8(line)),
		BackgroundVis:   debug.ExtractBackgroundData(e.mem),
		PaletteVis:      debug.ExtractPaletteData(e.mem),
		Audio:           debug.ExtractAudioData(e.mem, e.mem.APU),
	}
}

func (e *Emulator) GetCurrentFrame() *video.FrameBuffer {
	return e.gpu.GetFrameBuffer()
}

func (e *Emulator) HandleKeyPress(key memory.JoypadKey) {
	e.mem.HandleKeyPress(key)
}

func (e *Emulator) HandleKeyRelease(key memory.JoypadKey) {
	e.mem.HandleKeyRelease(key)
}

func (e *Emulator) GetCPU() *cpu.CPU {
	return e.cpu
}

// Debugger control methods
func (e *Emulator) SetDebuggerState(state DebuggerState) {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.debuggerState = state
	slog.Debug("Debugger state changed", "state", state)
}

func (e *Emulator) GetDebuggerState() DebuggerState {
	e.debuggerMutex.RLock()
	defer e.debuggerMutex.RUnlock()
	return e.debuggerState
}

func (e *Emulator) DebuggerPause() {
	e.SetDebuggerState(DebuggerPaused)
	slog.Info("Emulator paused")
}

func (e *Emulator) DebuggerResume() {
	e.SetDebuggerState(DebuggerRunning)
	slog.Info("Emulator resumed")
}

func (e *Emulator) DebuggerStepInstruction() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.stepRequested = true
	e.debuggerState = DebuggerStep
	slog.Info("Step instruction requested")
}

func (e *Emulator) DebuggerStepFrame() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.frameRequested = true
	e.debuggerState = DebuggerStepFrame
	slog.Info("Step frame requested")
}

func (e *Emulator) GetInstructionCount() uint64 {
	return e.instructionCount
}

func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

func (e *Emulator) GetMMU() *memory.MMU {
	return e.mem
}

var _ backend.DebugDataProvider = (*Emulator)(nil)

