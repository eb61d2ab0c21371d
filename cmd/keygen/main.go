// AngelaMos | 2026
// main.go

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/carterperez-dev/socialai/internal/auth"
)

func main() {
	dir := flag.String("dir", "keys", "output directory for private.pem and public.pem")
	force := flag.Bool("force", false, "overwrite an existing key pair")
	flag.Parse()

	if err := run(*dir, *force); err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}
}

func run(dir string, force bool) error {
	privatePath := filepath.Join(dir, "private.pem")
	publicPath := filepath.Join(dir, "public.pem")

	if !force {
		if _, err := os.Stat(privatePath); err == nil {
			return fmt.Errorf("%s exists; pass -force to replace it", privatePath)
		}
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}

	if err := auth.GenerateKeyPair(privatePath, publicPath); err != nil {
		return err
	}

	fmt.Printf("wrote %s and %s\n", privatePath, publicPath)
	return nil
}
