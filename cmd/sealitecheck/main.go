package main

import (
	"context"
	"log"

	"github.com/sealite/sealite/internal/sealitecheck"
)

func main() {
	if err := sealitecheck.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
