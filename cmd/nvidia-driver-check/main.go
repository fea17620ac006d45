package main

import "github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/cmd/nvidia-driver-check/cmd"

func main() {
	cmd.Execute()
}
