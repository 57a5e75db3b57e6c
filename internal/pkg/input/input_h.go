package input

// subset of linux/input.h not exported by go-evdev

const (
	BUS_PCI       = 0x01
	BUS_USB       = 0x03
	BUS_BLUETOOTH = 0x05
	BUS_VIRTUAL   = 0x06
	BUS_I8042     = 0x11
	BUS_I2C       = 0x18
	BUS_HOST      = 0x19
	BUS_SPI       = 0x1C
	BUS_RMI       = 0x1D

	// MT_TOOL types

	MT_TOOL_FINGER = 0x00
	MT_TOOL_PEN    = 0x01
	MT_TOOL_PALM   = 0x02
)

func BusName(bus uint16) string {
	switch bus {
	case BUS_PCI:
		return "pci"
	case BUS_USB:
		return "usb"
	case BUS_BLUETOOTH:
		return "bluetooth"
	case BUS_VIRTUAL:
		return "virtual"
	case BUS_I8042:
		return "i8042"
	case BUS_I2C:
		return "i2c"
	case BUS_HOST:
		return "host"
	case BUS_SPI:
		return "spi"
	case BUS_RMI:
		return "rmi"
	}
	return "other"
}
