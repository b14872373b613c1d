// Smoke test against a running proxy instance: tokenize a Thai sentence,
// search for a compound term, and check health. Expects the server on
// localhost:8080 and a backend index named "products".
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const baseURL = "http://localhost:8080"

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Smoke Test...")

	fmt.Println("1. Tokenize...")
	if !sendRequest("POST", "/tokenize", map[string]any{
		"text": "ฉันกินสาหร่ายวากาเมะ",
	}) {
		fmt.Println("FAILED: Tokenize")
		os.Exit(1)
	}
	fmt.Println("PASSED: Tokenize")

	fmt.Println("2. Search...")
	if !sendRequest("POST", "/search", map[string]any{
		"query": "วากาเมะ",
		"index": "products",
	}) {
		fmt.Println("FAILED: Search")
		os.Exit(1)
	}
	fmt.Println("PASSED: Search")

	fmt.Println("3. Health...")
	if !sendRequest("GET", "/health", nil) {
		fmt.Println("FAILED: Health")
		os.Exit(1)
	}
	fmt.Println("PASSED: Health")
}

func sendRequest(method, endpoint string, payload any) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Response: %s\n", string(respBody))

	return true
}
