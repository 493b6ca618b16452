package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

var (
	baseURL   = envOr("HELPDESK_BASE_URL", "http://localhost:3000/api")
	userToken = os.Getenv("HELPDESK_TOKEN")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{} // No timeout, LLM replies can be slow
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func dataField(body []byte) map[string]interface{} {
	var parsed map[string]interface{}
	json.Unmarshal(body, &parsed)
	if data, ok := parsed["data"].(map[string]interface{}); ok {
		return data
	}
	return nil
}

func main() {
	if userToken == "" {
		color.Red("HELPDESK_TOKEN is required (a JWT with a user_id claim)")
		os.Exit(1)
	}

	color.Cyan("🚀 Starting Helpdesk API Test\n")

	// 1. Upload a knowledge base article
	color.Yellow("\n[KB] 1. Create Document (EN)")
	docReq := map[string]interface{}{
		"title":    "Smoke test: resetting two-factor authentication",
		"content":  "To reset two-factor authentication, open Settings, Security, and choose Reset 2FA. A confirmation code is sent to your registered email. Enter the code within 10 minutes to finish the reset.",
		"language": "en",
	}
	resp, body, err := sendRequest("POST", "/document/v1", userToken, docReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var docID string
	if data := dataField(body); data != nil {
		if id, ok := data["id"].(string); ok {
			docID = id
			fmt.Printf("Created Document ID: %s\n", docID)
		}
	}

	// 2. Wait for ingestion to flip the status
	color.Yellow("\n[KB] 2. Poll Document Status until READY")
	status := ""
	for i := 0; i < 30; i++ {
		_, body, err = sendRequest("GET", "/document/v1/"+docID, userToken, nil)
		if err != nil {
			color.Red("Failed: %v", err)
			break
		}
		if data := dataField(body); data != nil {
			status, _ = data["status"].(string)
		}
		if status == "READY" || status == "FAILED" {
			break
		}
		time.Sleep(1 * time.Second)
	}
	if status == "READY" {
		color.Green("Document is READY")
	} else {
		color.Red("Document did not become READY (status=%q), continuing anyway", status)
	}

	// 3. Create chat session
	color.Yellow("\n[CHAT] 3. Create Chat Session")
	resp, body, err = sendRequest("POST", "/chat/v1/session", userToken, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var sessionID string
	if data := dataField(body); data != nil {
		if id, ok := data["id"].(string); ok {
			sessionID = id
			fmt.Printf("Created Session ID: %s\n", sessionID)
		}
	}
	if sessionID == "" {
		color.Red("No session id returned, aborting")
		os.Exit(1)
	}

	// 4. Greeting should not hit retrieval
	color.Yellow("\n[CHAT] 4. Greeting (expect no sources)")
	askAndPrint(sessionID, "Hello!")

	// 5. Retrieval query in English
	color.Yellow("\n[CHAT] 5. Retrieval Query (EN)")
	askAndPrint(sessionID, "How do I reset two-factor authentication?")

	// 6. Retrieval query in Arabic
	color.Yellow("\n[CHAT] 6. Retrieval Query (AR)")
	askAndPrint(sessionID, "كيف يمكنني إعادة تعيين المصادقة الثنائية؟")

	// 7. History should hold all turns in order
	color.Yellow("\n[CHAT] 7. Get Chat History")
	resp, body, err = sendRequest("GET", "/chat/v1/session/"+sessionID+"/history", userToken, nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		var histResp map[string]interface{}
		json.Unmarshal(body, &histResp)
		if turns, ok := histResp["data"].([]interface{}); ok {
			fmt.Printf("History length: %d turns\n", len(turns))
		} else {
			prettyPrint(histResp)
		}
	}

	// 8. Cleanup
	color.Yellow("\n[CLEANUP] 8. Delete Session and Document")
	resp, _, err = sendRequest("DELETE", "/chat/v1/session/"+sessionID, userToken, nil)
	if err != nil {
		color.Red("Delete session failed: %v", err)
	} else {
		color.Green("Delete session: %s", resp.Status)
	}
	if docID != "" {
		resp, _, err = sendRequest("DELETE", "/document/v1/"+docID, userToken, nil)
		if err != nil {
			color.Red("Delete document failed: %v", err)
		} else {
			color.Green("Delete document: %s", resp.Status)
		}
	}

	color.Cyan("\n✅ Test Sequence Complete")
}

func askAndPrint(sessionID, query string) {
	req := map[string]interface{}{
		"chat_session_id": sessionID,
		"query":           query,
	}
	resp, body, err := sendRequest("POST", "/chat/v1/query", userToken, req)
	if err != nil {
		color.Red("Failed: %v", err)
		return
	}
	color.Green("Status: %s", resp.Status)

	data := dataField(body)
	if data == nil {
		var raw map[string]interface{}
		json.Unmarshal(body, &raw)
		prettyPrint(raw)
		return
	}

	fmt.Printf("Category: %v\n", data["category"])
	if reply, ok := data["reply"].(map[string]interface{}); ok {
		fmt.Printf("Reply: %v\n", reply["content"])
		if sources, ok := reply["sources"].([]interface{}); ok {
			fmt.Printf("Sources: %d\n", len(sources))
		}
	}
}
