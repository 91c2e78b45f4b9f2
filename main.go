package main

import (
	"os"

	"github.com/achilleasa/raykernel/cmd"
	"github.com/achilleasa/raykernel/log"
)

var logger = log.New("raykernel")

func main() {
	if err := cmd.NewApp().Run(os.Args); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
