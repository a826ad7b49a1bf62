// Command automation-gateway serves remote UI automation for an Android device.
package main

import "github.com/devicelab-dev/automation-gateway/pkg/cli"

func main() {
	cli.Execute()
}
