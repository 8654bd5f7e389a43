package main

import (
	"log"
	"os"

	"github/itish2003/voicecare/cli"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := cli.Execute(); err != nil {
		log.Printf("FATAL: %v", err)
		os.Exit(1)
	}
}
