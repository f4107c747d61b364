package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicalrxq/member-portal/pkg/config"
	"github.com/clinicalrxq/member-portal/pkg/security"
)

func main() {
	_ = godotenv.Load()

	algo := flag.String("algo", "argon2id", "hash algorithm: argon2id|bcrypt")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	temp := flag.Int("temp", 0, "also print a random temporary password of this length")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, *algo, *cost, *temp); err != nil {
		fmt.Fprintf(os.Stderr, "hash-password: %v\n", err)
		os.Exit(1)
	}
}

// run reads one password line from in and writes the hash for the Members passwordHash field.
func run(in io.Reader, out io.Writer, algo string, cost, tempLen int) error {
	password, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")
	if password == "" {
		return fmt.Errorf("password is required on stdin")
	}

	var hash string
	switch algo {
	case "argon2id":
		var pw config.PasswordConfig
		if err := envconfig.Process(config.EnvPrefix, &pw); err != nil {
			return fmt.Errorf("parsing password config: %w", err)
		}
		hash, err = security.HashPassword(password, pw)
	case "bcrypt":
		hash, err = security.HashPasswordBcrypt(password, cost)
	default:
		return fmt.Errorf("unknown algorithm %q", algo)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hash)

	if tempLen > 0 {
		tempPassword, err := security.GenerateTempPassword(tempLen)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, tempPassword)
	}
	return nil
}
