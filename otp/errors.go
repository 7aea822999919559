package otp

import (
	"errors"
	"fmt"
)

// ErrCode is the 4-bit error code shared by the macro interface and the
// partition error outputs.
type ErrCode uint8

// Error codes.
const (
	NoErr ErrCode = iota
	CmdInvErr
	InitErr
	ReadCorrErr
	ReadUncorrErr
	ReadErr
	WriteBlankErr
	WriteErr
	AccessErr
	ParityErr
	IntegErr
	CnstyErr
	FsmErr
	EscErr
)

var errCodeNames = [...]string{
	NoErr:         "NoErr",
	CmdInvErr:     "CmdInvErr",
	InitErr:       "InitErr",
	ReadCorrErr:   "ReadCorrErr",
	ReadUncorrErr: "ReadUncorrErr",
	ReadErr:       "ReadErr",
	WriteBlankErr: "WriteBlankErr",
	WriteErr:      "WriteErr",
	AccessErr:     "AccessErr",
	ParityErr:     "ParityErr",
	IntegErr:      "IntegErr",
	CnstyErr:      "CnstyErr",
	FsmErr:        "FsmErr",
	EscErr:        "EscErr",
}

func (e ErrCode) String() string {
	if int(e) < len(errCodeNames) {
		return errCodeNames[e]
	}
	return fmt.Sprintf("ErrCode(%d)", uint8(e))
}

// Fatal reports whether e moves a partition into the terminal error state.
// Only correctable read errors are survivable.
func (e ErrCode) Fatal() bool {
	return e != NoErr && e != ReadCorrErr
}

// BusErrCode is the 2-bit bus response error reported for any failed read.
const BusErrCode uint8 = 0b11

var (
	// ErrBusy is returned when a request is issued while one is outstanding.
	ErrBusy = errors.New("request outstanding")
	// ErrUnknownPartition is returned for a partition name not in the map.
	ErrUnknownPartition = errors.New("unknown partition")
	// ErrNotInitialized is returned when a partition has not completed init.
	ErrNotInitialized = errors.New("partition not initialized")
)

// BusError reports a failed bus read.
type BusError struct {
	Partition string
	Addr      uint32
	Code      uint8
	State     ErrCode
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus read of %s+0x%x failed (bus error 0x%x, partition %s)",
		e.Partition, e.Addr, e.Code, e.State)
}
