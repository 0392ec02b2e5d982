package main

import (
	"github.com/mengelbart/mediarecorder/cmdmain"
	_ "github.com/mengelbart/mediarecorder/subcmd"

	// Device drivers for the record and serve commands
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
)

func main() {
	cmdmain.Main()
}
