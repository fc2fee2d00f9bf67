package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}
	secret := os.Getenv("IDENTITY_JWT_SECRET")

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "full":
		fullCmd(apiURL, secret, args)
	case "activity":
		activityCmd(apiURL, secret, args)
	case "watch":
		watchCmd(apiURL, secret, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Device Simulator - Development tool for exercising the parent API

USAGE:
  devicesim <command> [options]

COMMANDS:
  full      Bootstrap a parent, create children, and run one session each
  activity  Continuously open and close sessions until interrupted
  watch     Connect to the activity feed and print events as they arrive
  help      Show this help message

ENVIRONMENT:
  API_URL               Backend API URL (default: http://localhost:8080)
  IDENTITY_JWT_SECRET   Shared secret the backend verifies tokens with (required)

EXAMPLES:
  # Create a parent with 2 children and a short session for each
  devicesim full

  # Keep generating session activity for the same parent
  devicesim activity --subject=sim-parent-1 --interval=10s

  # In another terminal, stream that parent's live events
  devicesim watch --subject=sim-parent-1`)
}

// mintToken signs a development token with the same claim shape the
// identity provider issues. Only works when the backend shares the secret.
func mintToken(secret, subject string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("IDENTITY_JWT_SECRET is not set")
	}

	claims := jwt.MapClaims{
		"sub":   subject,
		"email": subject + "@sim.local",
		"name":  "Sim " + subject,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(12 * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func fullCmd(apiURL, secret string, args []string) {
	fs := flag.NewFlagSet("full", flag.ExitOnError)
	subject := fs.String("subject", "sim-parent-1", "External auth id of the simulated parent")
	count := fs.Int("children", 2, "Number of children to create")
	hold := fs.Duration("hold", 3*time.Second, "How long each session stays open")
	fs.Parse(args)

	if *count < 1 {
		fmt.Println("Error: --children must be at least 1")
		os.Exit(1)
	}

	token, err := mintToken(secret, *subject)
	if err != nil {
		fmt.Printf("Failed to mint token: %v\n", err)
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Println("=== Device Simulator: Full Flow ===")
	fmt.Println()

	fmt.Print("Bootstrapping parent... ")
	parent, err := client.Me(token)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK (%s)\n", parent.Name)

	fmt.Printf("Creating %d children:\n", *count)
	children := make([]Child, 0, *count)
	for i := 0; i < *count; i++ {
		name := fmt.Sprintf("SimKid%d", i+1)
		child, err := client.CreateChild(token, name)
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED: %v\n", i+1, *count, err)
			os.Exit(1)
		}
		children = append(children, *child)
		fmt.Printf("  [%d/%d] %s created\n", i+1, *count, child.Name)
	}

	fmt.Println()
	fmt.Printf("Running one %s session per child:\n", *hold)
	for _, child := range children {
		sessionID, err := client.OpenSession(token, child.ID)
		if err != nil {
			fmt.Printf("  %s: FAILED to open: %v\n", child.Name, err)
			os.Exit(1)
		}
		time.Sleep(*hold)
		duration, err := client.CloseSession(token, sessionID)
		if err != nil {
			fmt.Printf("  %s: FAILED to close: %v\n", child.Name, err)
			os.Exit(1)
		}
		fmt.Printf("  %s: session %s closed after %ds\n", child.Name, sessionID, duration)
	}

	fmt.Println()
	fmt.Println("=========================================")
	fmt.Println("  PARENT READY")
	fmt.Println("=========================================")
	fmt.Println()
	fmt.Printf("  Subject:  %s\n", *subject)
	fmt.Printf("  Token:    %s\n", token)
	fmt.Println()
	fmt.Println("  Use the token as a Bearer token against the API, or run")
	fmt.Printf("  'devicesim watch --subject=%s' to stream live events.\n", *subject)
}

func activityCmd(apiURL, secret string, args []string) {
	fs := flag.NewFlagSet("activity", flag.ExitOnError)
	subject := fs.String("subject", "sim-parent-1", "External auth id of the simulated parent")
	interval := fs.Duration("interval", 10*time.Second, "Upper bound on how long each session stays open")
	fs.Parse(args)

	token, err := mintToken(secret, *subject)
	if err != nil {
		fmt.Printf("Failed to mint token: %v\n", err)
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	if _, err := client.Me(token); err != nil {
		fmt.Printf("Failed to bootstrap parent: %v\n", err)
		os.Exit(1)
	}

	children, err := client.ListChildren(token)
	if err != nil {
		fmt.Printf("Failed to list children: %v\n", err)
		os.Exit(1)
	}
	if len(children) == 0 {
		child, err := client.CreateChild(token, "SimKid1")
		if err != nil {
			fmt.Printf("Failed to create child: %v\n", err)
			os.Exit(1)
		}
		children = append(children, *child)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	fmt.Printf("Generating activity for %d children (Ctrl-C to stop)...\n\n", len(children))

	for {
		child := children[rand.Intn(len(children))]

		sessionID, err := client.OpenSession(token, child.ID)
		if err != nil {
			fmt.Printf("open failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  %s: opened %s\n", child.Name, sessionID)

		// Hold between half and the full interval so durations vary.
		hold := *interval/2 + time.Duration(rand.Int63n(int64(*interval/2)+1))
		select {
		case <-interrupt:
			fmt.Println("\nInterrupted, closing open session...")
			if _, err := client.CloseSession(token, sessionID); err != nil {
				fmt.Printf("close failed: %v\n", err)
			}
			return
		case <-time.After(hold):
		}

		duration, err := client.CloseSession(token, sessionID)
		if err != nil {
			fmt.Printf("close failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  %s: closed after %ds\n", child.Name, duration)

		select {
		case <-interrupt:
			fmt.Println("\nDone.")
			return
		case <-time.After(time.Second):
		}
	}
}

func watchCmd(apiURL, secret string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	subject := fs.String("subject", "sim-parent-1", "External auth id of the parent to watch")
	fs.Parse(args)

	token, err := mintToken(secret, *subject)
	if err != nil {
		fmt.Printf("Failed to mint token: %v\n", err)
		os.Exit(1)
	}

	// The parent row must exist before the socket authenticates.
	if _, err := NewAPIClient(apiURL).Me(token); err != nil {
		fmt.Printf("Failed to bootstrap parent: %v\n", err)
		os.Exit(1)
	}

	wsURL := strings.Replace(apiURL, "http", "ws", 1) + "/api/ws?token=" + url.QueryEscape(token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("Watching events for %s (Ctrl-C to stop)...\n\n", *subject)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					fmt.Printf("read error: %v\n", err)
				}
				return
			}
			printEvent(message)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	select {
	case <-done:
	case <-interrupt:
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func printEvent(message []byte) {
	var event struct {
		Type      string          `json:"type"`
		Data      json.RawMessage `json:"data"`
		Timestamp int64           `json:"timestamp"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		fmt.Printf("  %s\n", message)
		return
	}

	at := time.UnixMilli(event.Timestamp).Format("15:04:05")
	fmt.Printf("  [%s] %-16s %s\n", at, event.Type, event.Data)
}
