package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	apiclient "github.com/steeven-js/madinia-cyber/pkg/api/client"
)

var buildVersion = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "login":
		err = commandLogin(args)
	case "refresh":
		err = commandRefresh(args)
	case "logs":
		err = commandLogs(args)
	case "log-test":
		err = commandLogTest(args)
	case "test-connection":
		err = commandTestConnection(args)
	case "users":
		err = commandUsers(args)
	case "set-role":
		err = commandSetRole(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Operator email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (default "+apiclient.DefaultBaseURL+")")
	fs.Parse(args)

	cfg, _ := loadConfig()
	if strings.TrimSpace(*email) == "" {
		*email = cfg.Email
	}
	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}

	secret := strings.TrimSpace(*password)
	if secret == "" {
		fmt.Print("Password: ")
		bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Print("\n")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		secret = string(bytes)
	}

	if strings.TrimSpace(*apiBase) != "" {
		cfg.APIBaseURL = *apiBase
	}
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := client.Login(ctx, *email, secret)
	if err != nil {
		return err
	}
	cfg.Email = resp.Operator.Email
	cfg.AccessToken = resp.Tokens.AccessToken
	cfg.RefreshToken = resp.Tokens.RefreshToken
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println(renderStatus(true, "logged in as "+resp.Operator.Email))
	return nil
}

func commandRefresh(args []string) error {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	fs.Parse(args)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.RefreshToken) == "" {
		return errors.New("no refresh token stored, please login using 'madinia login'")
	}
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := client.Refresh(ctx, cfg.RefreshToken)
	if err != nil {
		return err
	}
	cfg.AccessToken = resp.Tokens.AccessToken
	cfg.RefreshToken = resp.Tokens.RefreshToken
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println(renderStatus(true, "session refreshed for "+resp.Operator.Email))
	return nil
}

func commandLogs(args []string) error {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	days := fs.Int("days", 7, "Number of days to include")
	level := fs.String("level", "", "Only show this level")
	search := fs.String("search", "", "Only show entries containing this text")
	limit := fs.Int("limit", 50, "Maximum number of entries to display (0 for all)")
	follow := fs.Bool("follow", false, "Keep streaming new entries")
	fs.Parse(args)

	client, token, err := session()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	resp, err := client.Logs(ctx, token, apiclient.LogQuery{Days: *days, Level: *level, Search: *search})
	cancel()
	if err != nil {
		return err
	}

	entries := resp.Logs
	if *limit > 0 && *limit < len(entries) {
		entries = entries[:*limit]
	}
	// newest last, like tail
	for i := len(entries) - 1; i >= 0; i-- {
		fmt.Println(renderEntry(entries[i]))
	}
	fmt.Println(mutedStyle.Render(fmt.Sprintf("%d of %d entries over %d days (levels: %s)",
		resp.FilteredLogs, resp.TotalLogs, resp.Days, strings.Join(resp.Levels, ", "))))

	if !*follow {
		return nil
	}
	streamCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err = client.StreamLogs(streamCtx, token, func(entry apiclient.LogEntry) error {
		fmt.Println(renderEntry(entry))
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func commandLogTest(args []string) error {
	fs := flag.NewFlagSet("log-test", flag.ExitOnError)
	fs.Parse(args)

	client, token, err := session()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	flash, err := client.WriteTestLog(ctx, token)
	if err != nil {
		return err
	}
	fmt.Println(renderStatus(true, flash))
	return nil
}

func commandTestConnection(args []string) error {
	fs := flag.NewFlagSet("test-connection", flag.ExitOnError)
	fs.Parse(args)

	client, token, err := session()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := client.TestConnection(ctx, token)
	if err != nil {
		return err
	}
	fmt.Println(renderStatus(result.Success, result.Message))
	fmt.Printf("project:    %s\n", result.ProjectID)
	fmt.Printf("checked at: %s\n", result.CheckedAt.Local().Format(time.RFC3339))
	if !result.Success {
		if result.Error != "" {
			return errors.New(result.Error)
		}
		return errors.New(result.Message)
	}
	return nil
}

func commandUsers(args []string) error {
	fs := flag.NewFlagSet("users", flag.ExitOnError)
	role := fs.String("role", "", "Only show users with this role")
	fs.Parse(args)

	client, token, err := session()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	resp, err := client.ListUsers(ctx, token)
	if err != nil {
		return err
	}
	users := resp.Users
	if *role != "" {
		filtered := users[:0]
		for _, u := range users {
			if u.Role != nil && *u.Role == *role {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	printUsers(os.Stdout, users)
	fmt.Println(mutedStyle.Render(fmt.Sprintf("%d of %d users", len(users), resp.TotalUsers)))
	return nil
}

func commandSetRole(args []string) error {
	fs := flag.NewFlagSet("set-role", flag.ExitOnError)
	uid := fs.String("uid", "", "User identifier")
	role := fs.String("role", "", "Role (super_admin|admin|user)")
	fs.Parse(args)

	if strings.TrimSpace(*uid) == "" {
		return errors.New("--uid is required")
	}
	if strings.TrimSpace(*role) == "" {
		return errors.New("--role is required")
	}

	client, token, err := session()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.SetRole(ctx, token, *uid, *role)
	if err != nil {
		return err
	}
	fmt.Println(renderStatus(resp.Success, resp.Message))
	return nil
}

func session() (*apiclient.Client, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, "", errors.New("please login first using 'madinia login'")
	}
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return nil, "", err
	}
	return client, token, nil
}

func printUsage() {
	fmt.Printf("madinia CLI %s\n\n", buildVersion)
	fmt.Print(`Usage:
	madinia login --email ops@example.com [--password secret] [--api http://localhost:8080]
	madinia refresh
	madinia logs [--days N] [--level error] [--search text] [--limit N] [--follow]
	madinia log-test
	madinia test-connection
	madinia users [--role admin]
	madinia set-role --uid <uid> --role super_admin|admin|user
	madinia version
`)
}

func printVersion() {
	fmt.Println(strings.TrimSpace(buildVersion))
}
