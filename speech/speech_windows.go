//go:build windows

package speech

import (
	"fmt"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"golang.org/x/sys/windows"
)

// SAPI speak flags.
const (
	svsfAsync            = 1
	svsfPurgeBeforeSpeak = 2
)

const spiGetScreenReader = 0x0046

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	systemParametersInfo = user32.NewProc("SystemParametersInfoW")
)

type sapiSynth struct {
	voice *ole.IDispatch
}

// New binds to SAPI. The session owning the synthesizer must call
// Speak from a single goroutine; COM is initialized for that one.
func New() (Synthesizer, error) {
	if err := ole.CoInitialize(0); err != nil {
		oleErr, ok := err.(*ole.OleError)
		// S_FALSE means COM was already initialized here.
		if !ok || oleErr.Code() != 1 {
			return nil, fmt.Errorf("sapi: %w", err)
		}
	}
	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return nil, fmt.Errorf("sapi: %w", err)
	}
	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return nil, fmt.Errorf("sapi: %w", err)
	}
	return &sapiSynth{voice: voice}, nil
}

func (s *sapiSynth) Name() string { return "sapi" }

// Available asks Windows whether a screen reader flagged itself via
// SPI_GETSCREENREADER. NVDA and JAWS both set it.
func (s *sapiSynth) Available() bool {
	var on uint32
	ret, _, _ := systemParametersInfo.Call(spiGetScreenReader, 0, uintptr(unsafe.Pointer(&on)), 0)
	return ret != 0 && on != 0
}

func (s *sapiSynth) Speak(text string, interrupt bool) error {
	flags := svsfAsync
	if interrupt {
		flags |= svsfPurgeBeforeSpeak
	}
	_, err := oleutil.CallMethod(s.voice, "Speak", text, flags)
	if err != nil {
		return fmt.Errorf("sapi speak: %w", err)
	}
	return nil
}

func (s *sapiSynth) Close() error {
	if s.voice != nil {
		s.voice.Release()
		s.voice = nil
	}
	ole.CoUninitialize()
	return nil
}
