package main

import (
	"github.com/thereayou/chatserver/internal/server"
)

func main() {
	server.NewServer().Run()
}
