package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// chatcli is an interactive terminal client for the admin chatbot API, useful
// for poking at a running backend without the admin console.
func main() {
	log.SetFlags(0)

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	baseURL := flag.String("url", "http://localhost:8080/api", "API base URL")
	flag.Parse()

	apiKey := strings.TrimSpace(os.Getenv("PP_API_KEY"))
	if apiKey == "" {
		log.Fatal("PP_API_KEY environment variable is required")
	}

	client := &apiClient{
		baseURL: strings.TrimRight(*baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 60 * time.Second},
	}

	sessionID, welcome, err := client.createSession()
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}
	defer client.deleteSession(sessionID)

	fmt.Println("ParentPass Chatbot CLI")
	fmt.Println("Type 'quit' or 'exit' to end the conversation")
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("Session created: %s\n", sessionID)
	if welcome != "" {
		fmt.Printf("Bot: %s\n", welcome)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		answer, err := client.ask(sessionID, line)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Printf("Bot: %s\n", answer)
	}

	fmt.Println("Goodbye!")
}

type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func (c *apiClient) createSession() (string, string, error) {
	resp, err := c.do(http.MethodPost, "/sessions", "", nil)
	if err != nil {
		return "", "", err
	}

	var body struct {
		SessionID string `json:"session_id"`
		State     struct {
			Welcome string `json:"welcome"`
		} `json:"state"`
	}
	if err := json.Unmarshal(resp, &body); err != nil {
		return "", "", fmt.Errorf("decode session response: %w", err)
	}
	return body.SessionID, body.State.Welcome, nil
}

func (c *apiClient) ask(sessionID, message string) (string, error) {
	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return "", err
	}

	resp, err := c.do(http.MethodPost, "/query", sessionID, payload)
	if err != nil {
		return "", err
	}

	var body struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(resp, &body); err != nil {
		return "", fmt.Errorf("decode query response: %w", err)
	}
	return body.Response, nil
}

func (c *apiClient) deleteSession(sessionID string) {
	if _, err := c.do(http.MethodDelete, "/sessions/"+sessionID, "", nil); err != nil {
		log.Printf("warning: failed to delete session: %v", err)
	}
}

func (c *apiClient) do(method, path, sessionID string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
