package main

import "todo_backend/internal/app"

func main() {
	app.Run()
}
