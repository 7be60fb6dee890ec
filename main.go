package main

import (
	"os"

	"diskwarden/internal/cli"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
