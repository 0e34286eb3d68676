package main

import (
	"context"
	"log"

	"github.com/sealite/sealite/internal/sealitebench"
)

func main() {
	if err := sealitebench.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
