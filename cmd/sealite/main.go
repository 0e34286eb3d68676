package main

import (
	"context"
	"log"

	"github.com/sealite/sealite/internal/sealite"
)

func main() {
	if err := sealite.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
