package main

import (
	"os"
)

// @title Courier Portal API
// @version 1.0
// @description Realtime package tracking and operations admin for the courier portal.
// @contact.name API Support
// @contact.email support@courierportal.dev
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
