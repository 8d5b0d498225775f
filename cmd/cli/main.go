package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "resource":
		handleResource(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`workstream - realtime HR/CRM gateway client

Usage:
  workstream auth <login|logout|who>
  workstream resource <list|get|create|update|delete|stats> <name> [flags]

Resources: deal, ticket, candidate, job, asset, resignation,
trainer, training, trainingtype, employee

Environment:
  WORKSTREAM_API  base URL (default http://localhost:8080)`)
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: workstream auth <login|logout|who>")
		return
	}

	switch args[0] {
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", args[0])
	}
}

func handleResource(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: workstream resource <list|get|create|update|delete|stats> <name> [flags]")
		return
	}

	action, name := args[0], args[1]
	rest := args[2:]

	switch action {
	case "list":
		listDocuments(name, rest)
	case "get":
		getDocument(name, rest)
	case "create":
		createDocument(name, rest)
	case "update":
		updateDocument(name, rest)
	case "delete":
		deleteDocument(name, rest)
	case "stats":
		resourceStats(name)
	default:
		fmt.Printf("unknown resource command: %s\n", action)
	}
}

// Auth commands
func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	data, _ := json.Marshal(map[string]string{"email": *email, "password": *password})
	resp, err := http.Post(getAPIURL()+"/api/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Login failed: %s\n", resp.Status)
		return
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if token, ok := result["token"].(string); ok {
		saveToken(token)
		fmt.Printf("✓ Logged in as %v (%v)\n", result["email"], result["role"])
	}
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("✓ Logged in (token: %s...)\n", token[:20])
}

// Resource commands, all over the websocket gateway
func listDocuments(name string, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 10, "page size")
	search := fs.String("search", "", "search text")
	fs.Parse(args)

	data := map[string]interface{}{"page": *page, "limit": *limit}
	if *search != "" {
		data["search"] = *search
	}

	result, err := call(name+":getAll", data)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	page_, _ := result.(map[string]interface{})
	items, _ := page_["items"].([]interface{})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED")
	for _, it := range items {
		doc, _ := it.(map[string]interface{})
		fmt.Fprintf(w, "%v\t%v\t%v\n", doc["id"], displayName(doc), doc["createdAt"])
	}
	w.Flush()
	fmt.Printf("total: %v\n", page_["total"])
}

func getDocument(name string, args []string) {
	if len(args) < 1 {
		fmt.Printf("Usage: workstream resource get %s <id>\n", name)
		return
	}
	result, err := call(name+":getById", map[string]interface{}{"id": args[0]})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printJSON(result)
}

func createDocument(name string, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	payload := fs.String("json", "", "document JSON")
	fs.Parse(args)

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(*payload), &doc); err != nil {
		fmt.Println("Error: -json must be a JSON object")
		return
	}

	result, err := call(name+":create", doc)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("✓ Created")
	printJSON(result)
}

func updateDocument(name string, args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	id := fs.String("id", "", "document id")
	payload := fs.String("json", "", "patch JSON")
	fs.Parse(args)

	var patch map[string]interface{}
	if *id == "" || json.Unmarshal([]byte(*payload), &patch) != nil {
		fmt.Println("Error: -id and a JSON -json patch are required")
		return
	}

	result, err := call(name+":update", map[string]interface{}{"id": *id, "patch": patch})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("✓ Updated")
	printJSON(result)
}

func deleteDocument(name string, args []string) {
	if len(args) < 1 {
		fmt.Printf("Usage: workstream resource delete %s <id>\n", name)
		return
	}
	if _, err := call(name+":delete", map[string]interface{}{"id": args[0]}); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("✓ Deleted")
}

func resourceStats(name string) {
	result, err := call(name+":stats", nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printJSON(result)
}

// call dials the gateway, sends one event, and waits for its ack. Room
// broadcasts arriving in between are skipped.
func call(event string, data interface{}) (interface{}, error) {
	token := loadToken()
	if token == "" {
		return nil, fmt.Errorf("not logged in, run: workstream auth login")
	}

	wsURL := strings.Replace(getAPIURL(), "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	frame := map[string]interface{}{"event": event, "id": "cli-1", "data": data}
	if err := conn.WriteJSON(frame); err != nil {
		return nil, err
	}

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var reply struct {
			Event string      `json:"event"`
			ID    string      `json:"id"`
			Done  bool        `json:"done"`
			Data  interface{} `json:"data"`
			Error string      `json:"error"`
		}
		if err := conn.ReadJSON(&reply); err != nil {
			return nil, err
		}
		if reply.Event != event+"-response" || reply.ID != "cli-1" {
			continue
		}
		if !reply.Done {
			return nil, fmt.Errorf("%s", reply.Error)
		}
		return reply.Data, nil
	}
}

// Helper functions
func displayName(doc map[string]interface{}) interface{} {
	for _, field := range []string{"name", "subject", "title", "position"} {
		if v, ok := doc[field]; ok && v != "" {
			return v
		}
	}
	return ""
}

func printJSON(v interface{}) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}

func getAPIURL() string {
	if url := os.Getenv("WORKSTREAM_API"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.workstream/token"
}

func saveToken(token string) error {
	os.MkdirAll(os.Getenv("HOME")+"/.workstream", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}
