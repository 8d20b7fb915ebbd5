// debug.go - interactive debug REPL and Lua scripting console (C12).
//
// Grounded on terminal_host.go's raw-stdin-reader idiom: stdin is put into raw mode so
// this console owns echo and line editing itself rather than relying on the OS line
// discipline, the same reason terminal_host.go gives for doing its own CR/backspace
// translation. Commands are dispatched once a full line has accumulated. Scripting is
// exposed through gopher-lua, with a handful of Go functions registered into the Lua
// global table that reach into the running Console the way terminal_host.go's MMIO
// device reaches into the guest machine.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	lua "github.com/yuin/gopher-lua"
	"golang.design/x/clipboard"
	"golang.org/x/term"

	"github.com/hiraeth-systems/consolecore/internal/console"
	"github.com/hiraeth-systems/consolecore/internal/savestate"
)

// DebugConsole is a line-oriented REPL for inspecting and driving a Console, with an
// embedded Lua interpreter for scripted sessions.
type DebugConsole struct {
	c      *console.Console
	onQuit func()

	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once

	fd           int
	nonblockSet  bool
	oldTermState *term.State

	line []byte

	paused bool
}

// NewDebugConsole creates a REPL bound to a running Console. onQuit is invoked when the
// user issues the "quit" command.
func NewDebugConsole(c *console.Console, onQuit func()) *DebugConsole {
	return &DebugConsole{
		c:      c,
		onQuit: onQuit,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start puts stdin into raw mode and begins reading commands in a background goroutine.
func (d *DebugConsole) Start() {
	d.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(d.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "debug: failed to set raw mode: %v\n", err)
		close(d.done)
		return
	}
	d.oldTermState = oldState

	if err := syscall.SetNonblock(d.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "debug: failed to set nonblocking stdin: %v\n", err)
		_ = term.Restore(d.fd, d.oldTermState)
		d.oldTermState = nil
		close(d.done)
		return
	}
	d.nonblockSet = true

	fmt.Print("consolevm debug console — type \"help\"\r\n> ")

	go func() {
		defer close(d.done)
		buf := make([]byte, 1)
		for {
			select {
			case <-d.stopCh:
				return
			default:
			}
			n, err := syscall.Read(d.fd, buf)
			if n > 0 {
				d.handleByte(buf[0])
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || n == 0 {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
		}
	}()
}

// Stop terminates the reader goroutine and restores the terminal.
func (d *DebugConsole) Stop() {
	d.stopped.Do(func() { close(d.stopCh) })
	<-d.done
	if d.nonblockSet {
		_ = syscall.SetNonblock(d.fd, false)
		d.nonblockSet = false
	}
	if d.oldTermState != nil {
		_ = term.Restore(d.fd, d.oldTermState)
		d.oldTermState = nil
	}
}

func (d *DebugConsole) handleByte(b byte) {
	if b == '\r' {
		b = '\n'
	}
	if b == 0x7F {
		b = 0x08
	}
	switch b {
	case '\n':
		fmt.Print("\r\n")
		line := string(d.line)
		d.line = d.line[:0]
		d.dispatch(strings.TrimSpace(line))
		fmt.Print("> ")
	case 0x08:
		if len(d.line) > 0 {
			d.line = d.line[:len(d.line)-1]
			fmt.Print("\b \b")
		}
	default:
		d.line = append(d.line, b)
		os.Stdout.Write([]byte{b})
	}
}

func (d *DebugConsole) dispatch(line string) {
	if line == "" {
		return
	}
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "help":
		fmt.Print("commands: step [n], run, pause, reset, regs, peek <addr>, poke <addr> <val>,\r\n" +
			"          save <path>, load <path>, script <path>, paste, quit\r\n")
	case "step":
		n := 1
		if len(args) > 0 {
			if v, err := strconv.Atoi(args[0]); err == nil {
				n = v
			}
		}
		for i := 0; i < n; i++ {
			d.c.StepInstruction()
		}
	case "run":
		d.paused = false
	case "pause":
		d.paused = true
	case "reset":
		d.c.Reset()
	case "regs":
		fmt.Printf("PC=%04X A=%04X X=%04X Y=%04X SP=%04X P=%02X E=%v\r\n",
			d.c.CPU.PC, d.c.CPU.A, d.c.CPU.X, d.c.CPU.Y, d.c.CPU.SP, d.c.CPU.P, d.c.CPU.E)
	case "peek":
		if len(args) < 1 {
			fmt.Print("usage: peek <addr>\r\n")
			return
		}
		addr, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			fmt.Printf("bad address: %v\r\n", err)
			return
		}
		val, _ := d.c.Router.ReadByte(uint32(addr))
		fmt.Printf("%06X: %02X\r\n", addr, val)
	case "poke":
		if len(args) < 2 {
			fmt.Print("usage: poke <addr> <val>\r\n")
			return
		}
		addr, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			fmt.Printf("bad address: %v\r\n", err)
			return
		}
		val, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil {
			fmt.Printf("bad value: %v\r\n", err)
			return
		}
		_ = d.c.Router.WriteByte(uint32(addr), byte(val))
	case "save":
		if len(args) < 1 {
			fmt.Print("usage: save <path>\r\n")
			return
		}
		if err := savestate.SaveToFile(d.c, args[0]); err != nil {
			fmt.Printf("save failed: %v\r\n", err)
		}
	case "load":
		if len(args) < 1 {
			fmt.Print("usage: load <path>\r\n")
			return
		}
		if err := savestate.LoadFromFile(d.c, args[0]); err != nil {
			fmt.Printf("load failed: %v\r\n", err)
		}
	case "script":
		if len(args) < 1 {
			fmt.Print("usage: script <path>\r\n")
			return
		}
		d.runLuaFile(args[0])
	case "paste":
		d.pasteAndRun()
	case "quit":
		if d.onQuit != nil {
			d.onQuit()
		}
	default:
		fmt.Printf("unknown command %q\r\n", cmd)
	}
}

// newLuaState builds a Lua interpreter with this debug console's Console bound in as a
// handful of global functions, the same shape of host-function binding terminal_host.go
// gives its MMIO device.
func (d *DebugConsole) newLuaState() *lua.LState {
	L := lua.NewState()
	L.SetGlobal("step", L.NewFunction(func(L *lua.LState) int {
		n := L.OptInt(1, 1)
		for i := 0; i < n; i++ {
			d.c.StepInstruction()
		}
		return 0
	}))
	L.SetGlobal("reset", L.NewFunction(func(L *lua.LState) int {
		d.c.Reset()
		return 0
	}))
	L.SetGlobal("peek", L.NewFunction(func(L *lua.LState) int {
		addr := uint32(L.CheckInt(1))
		val, _ := d.c.Router.ReadByte(addr)
		L.Push(lua.LNumber(val))
		return 1
	}))
	L.SetGlobal("poke", L.NewFunction(func(L *lua.LState) int {
		addr := uint32(L.CheckInt(1))
		val := byte(L.CheckInt(2))
		_ = d.c.Router.WriteByte(addr, val)
		return 0
	}))
	L.SetGlobal("pc", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(d.c.CPU.PC))
		return 1
	}))
	L.SetGlobal("print_regs", L.NewFunction(func(L *lua.LState) int {
		fmt.Printf("PC=%04X A=%04X X=%04X Y=%04X SP=%04X\r\n",
			d.c.CPU.PC, d.c.CPU.A, d.c.CPU.X, d.c.CPU.Y, d.c.CPU.SP)
		return 0
	}))
	return L
}

func (d *DebugConsole) runLuaFile(path string) {
	L := d.newLuaState()
	defer L.Close()
	if err := L.DoFile(path); err != nil {
		fmt.Printf("lua error: %v\r\n", err)
	}
}

// pasteAndRun reads a Lua chunk from the system clipboard and executes it directly,
// the interactive-scripting equivalent of video.go's clipboard-paste-as-keystrokes path
// in video_backend_ebiten.go.
func (d *DebugConsole) pasteAndRun() {
	if err := clipboard.Init(); err != nil {
		fmt.Printf("clipboard unavailable: %v\r\n", err)
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		fmt.Print("clipboard empty\r\n")
		return
	}
	L := d.newLuaState()
	defer L.Close()
	if err := L.DoString(string(data)); err != nil {
		fmt.Printf("lua error: %v\r\n", err)
	}
}
