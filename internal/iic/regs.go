package iic

// Register offsets within the AXI IIC window.
const (
	RegGIE        = 0x01C // Global interrupt enable
	RegISR        = 0x020 // Interrupt status
	RegIER        = 0x028 // Interrupt enable
	RegSOFTR      = 0x040 // Soft reset
	RegCR         = 0x100 // Control
	RegSR         = 0x104 // Status
	RegTxFIFO     = 0x108 // Transmit FIFO
	RegRxFIFO     = 0x10C // Receive FIFO
	RegADR        = 0x110 // Slave address
	RegTxFIFOOcy  = 0x114 // Transmit FIFO occupancy
	RegRxFIFOOcy  = 0x118 // Receive FIFO occupancy
	RegTenADR     = 0x11C // Ten-bit slave address
	RegRxFIFOPirq = 0x120 // Receive FIFO programmable depth interrupt
	RegGPO        = 0x124 // General purpose output
	RegTSUSTA     = 0x128
	RegTSUSTO     = 0x12C
	RegTHDSTA     = 0x130
	RegTSUDAT     = 0x134
	RegTBUF       = 0x138
	RegTHIGH      = 0x13C
	RegTLOW       = 0x140
	RegTHDDAT     = 0x144

	// Size is the length of the register window.
	Size = 0x10000
)

// Status register bits.
const (
	SRBusBusy = 1 << 2
	SRRxEmpty = 1 << 6
	SRTxEmpty = 1 << 7
)

// Control register values used during initialization.
const (
	CREnable      = 0x1
	CRTxFIFOReset = 0x2
)

// TX FIFO word flags for dynamic controller logic.
const (
	Start = 0x100
	Stop  = 0x200
)

const (
	softResetKey = 0xA
	rxFIFODepth  = 0xF
)
