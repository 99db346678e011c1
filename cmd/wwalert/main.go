package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mattmezza/wwalert/internal/alerter"
	"github.com/mattmezza/wwalert/internal/config"
	"github.com/mattmezza/wwalert/internal/wechatwork"
)

func init() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin))
}

// run returns the process exit code: 0 when the alert was delivered (or
// nobody is configured), 1 otherwise.
func run(args []string, stdin io.Reader) int {
	fset := flag.NewFlagSet("wwalert", flag.ContinueOnError)
	configFile := fset.String("config", "config.yaml", "Path to the configuration file.")
	envFile := fset.String("env", ".env", "Optional dotenv file with secrets.")
	if err := fset.Parse(args); err != nil {
		return 2
	}

	if err := loadEnvFile(*envFile); err != nil {
		log.Printf("ERROR: Failed to load env file %s: %v", *envFile, err)
		return 1
	}

	message, err := readMessage(fset.Args(), stdin)
	if err != nil {
		log.Printf("ERROR: %v", err)
		return 1
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Printf("ERROR: Failed to load configuration from %s: %v", *configFile, err)
		return 1
	}

	// A client error is not fatal: the alerter reports it per target.
	var sender wechatwork.Sender
	if client, err := wechatwork.NewClient(cfg.WechatWork); err != nil {
		log.Printf("Warning: WeChat Work client not initialized: %v", err)
	} else {
		sender = client
	}

	res := alerter.NewAlerter(cfg, sender).Alert(message)
	if !res.OK {
		log.Printf("❌ Alert delivery failed: %s", res.Message)
		return 1
	}
	log.Printf("✅ Alert delivered.")
	return 0
}

// loadEnvFile loads path into the environment. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func readMessage(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read message from stdin: %w", err)
	}
	message := strings.TrimRight(string(data), "\r\n")
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("no message given on the command line or stdin")
	}
	return message, nil
}
