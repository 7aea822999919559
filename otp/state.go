package otp

// State is a partition controller state. States are sparsely encoded 10-bit
// words with a pairwise Hamming distance of at least 5; any other pattern is
// invalid and drives the controller into ErrorSt.
type State uint16

// Partition controller states.
const (
	ResetSt    State = 0b00_0000_0111
	InitSt     State = 0b00_0011_1000
	InitWaitSt State = 0b00_1100_1001
	IdleSt     State = 0b00_1111_0110
	ReadSt     State = 0b11_0000_1010
	ReadWaitSt State = 0b11_0011_0101
	ErrorSt    State = 0b11_1100_0100
)

// stateMask covers the encoded bits.
const stateMask State = 0x3FF

var stateNames = map[State]string{
	ResetSt:    "Reset",
	InitSt:     "Init",
	InitWaitSt: "InitWait",
	IdleSt:     "Idle",
	ReadSt:     "Read",
	ReadWaitSt: "ReadWait",
	ErrorSt:    "Error",
}

// Valid reports whether s is one of the defined encodings.
func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Invalid"
}
