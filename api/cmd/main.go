package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	api "microblog/api"
	"microblog/api/controllers"
	"microblog/api/logger"
	"microblog/api/models"
	"microblog/api/seed"

	"go.uber.org/zap"
	"golang.org/x/term"
)

const usage = `usage: microblog <command> [flags]

commands:
  serve        run the HTTP API (default)
  seed         load demo users, posts and follows
  createuser   register a user from the terminal
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = api.Run(ctx)
	case "seed":
		err = runSeed(args)
	case "createuser":
		err = runCreateUser(args)
	case "help":
		fmt.Print(usage)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runSeed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	reset := fs.Bool("reset", false, "drop existing tables first")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, log, err := api.Bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := controllers.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	if err := seed.Load(db, *reset, log); err != nil {
		return err
	}
	log.Info("seeded demo data", zap.Bool("reset", *reset))
	return nil
}

func runCreateUser(args []string) error {
	fs := flag.NewFlagSet("createuser", flag.ExitOnError)
	username := fs.String("username", "", "username")
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, log, err := api.Bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	password, err := readPassword()
	if err != nil {
		return err
	}

	user := models.User{Username: *username, Email: *email}
	user.Prepare()
	if msgs := user.Validate("", password); len(msgs) > 0 {
		for _, msg := range msgs {
			fmt.Fprintln(os.Stderr, msg)
		}
		return errors.New("invalid user")
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}

	db, err := controllers.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	if err := controllers.Migrate(db, log); err != nil {
		return err
	}
	if _, err := user.SaveUser(db); err != nil {
		return err
	}
	log.Info("created user", zap.String("username", user.Username), zap.String("public_id", user.PublicID))
	return nil
}

// readPassword prompts twice on a terminal; piped input is read as one line.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords must match")
	}
	return string(first), nil
}
