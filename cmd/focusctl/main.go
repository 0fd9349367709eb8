// focusctl - CLI remote for a BLE stepper-motor focus controller.
package main

import (
	"github.com/astrokit/focuser/internal/cli"
)

func main() {
	cli.Execute()
}
