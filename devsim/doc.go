// Package devsim provides behavioral models of the CREEC and CORDIC units
// that speak the same register protocol as the hardware. They implement
// mmio.Transport, so drivers can be exercised without a board.
package devsim
