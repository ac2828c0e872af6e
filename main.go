package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"momentum/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
