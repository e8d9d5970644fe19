package main

import (
	"math/rand"
	"time"

	"github.com/rcontf/beta-serverless-api/cmd"
)

func main() {
	// Command request ids are drawn from math/rand.
	rand.Seed(time.Now().UnixNano())

	cmd.Execute()
}
