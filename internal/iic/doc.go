// Package iic drives a Xilinx AXI IIC controller through its dynamic
// controller-logic interface: transactions are queued as TX FIFO words with
// START and STOP flags, and completion is observed by busy-polling the status
// register.
//
// Controller implements the tinygo drivers.I2C bus interface so that device
// drivers written against that contract run on top of it.
package iic
