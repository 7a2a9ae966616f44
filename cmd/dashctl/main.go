// Command dashctl performs administrative tasks against the dashkeeper
// database: schema migration and user provisioning.
package main

import (
	"log"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}
