// Command mmiodrv drives CREEC and CORDIC units over memory-mapped registers,
// either on hardware through /dev/mem or against simulated devices.
package main

import "github.com/sarchlab/mmiodrv/mmiodrv/cmd"

func main() {
	cmd.Execute()
}
