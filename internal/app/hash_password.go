package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/johnathanacortesd/LimpiarV/internal/auth"
)

// runHashPassword prints the bcrypt hash to put in
// LIMPIARV_ACCESS_PASSWORD_HASH.
func runHashPassword(args []string) int {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	password := fs.String("password", "", "Password to hash (required)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if strings.TrimSpace(*password) == "" {
		fmt.Fprintln(os.Stderr, "--password is required")
		return 2
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
		return 1
	}

	fmt.Fprintln(os.Stdout, hash)
	return 0
}
