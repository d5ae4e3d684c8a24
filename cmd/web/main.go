// Command web serves the place-sharing HTTP API.
package main

import "shareplace_backend/internal/app"

func main() {
	app.Run()
}
