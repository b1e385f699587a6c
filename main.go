// @title           KC MVP API
// @version         1.0
// @description     REST backend for the KarmaCommunity assistance platform:
// @description     task management with hierarchical assignment permissions,
// @description     time-log gated completion and best-effort notifications.

// @host      localhost:8080
// @BasePath  /api
package main

import "github.com/KarmaCummunity/KC-MVP-server-sub001/cmd"

func main() {
	cmd.Execute()
}
