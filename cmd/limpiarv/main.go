package main

import (
	"os"

	"github.com/johnathanacortesd/LimpiarV/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
