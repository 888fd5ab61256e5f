package mpr121

// I2C addresses selected by the ADDR pin.
const (
	AddressGND = 0x5A
	AddressVDD = 0x5B
	AddressSDA = 0x5C
	AddressSCL = 0x5D
)

// Register map (datasheet section 5).
const (
	regTouchStatusL = 0x00
	regTouchStatusH = 0x01
	regFiltData0L   = 0x04
	regBaseline0    = 0x1E

	regMHDR = 0x2B
	regNHDR = 0x2C
	regNCLR = 0x2D
	regFDLR = 0x2E
	regMHDF = 0x2F
	regNHDF = 0x30
	regNCLF = 0x31
	regFDLF = 0x32
	regNHDT = 0x33
	regNCLT = 0x34
	regFDLT = 0x35

	regTouchTh0   = 0x41
	regReleaseTh0 = 0x42
	regDebounce   = 0x5B

	RegConfig1 = 0x5C // FFI[7:6] CDC[5:0]
	RegConfig2 = 0x5D // CDT[7:5] SFI[4:3] ESI[2:0]
	RegECR     = 0x5E

	regGPIOFirst = 0x73
	regGPIOLast  = 0x7A

	regAutoConfig0 = 0x7B
	regUpLimit     = 0x7D
	regLowLimit    = 0x7E
	regTargetLimit = 0x7F

	regSoftReset = 0x80
)

const (
	softResetMagic = 0x63
	// CONFIG2 reads back 0x24 after a soft reset; used as the presence probe.
	config2ResetValue = 0x24

	// Electrodes is the number of sensing inputs; channel 12 is the proximity electrode.
	Electrodes   = 12
	maxChannel   = 12
	ecrBaseTrack = 0x80 // CL=10: baseline tracking enabled, initial value from first sample
)
