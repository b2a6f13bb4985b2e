// Package main provides a load probe for the notification WebSocket.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the probe results
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	FramesSent           int64
	FramesReceived       int64
	Errors               int64

	mu     sync.Mutex
	byType map[string]int64
}

func (m *Metrics) received(kind string) {
	atomic.AddInt64(&m.FramesReceived, 1)
	m.mu.Lock()
	m.byType[kind]++
	m.mu.Unlock()
}

var (
	metrics = Metrics{byType: make(map[string]int64)}
	verbose bool
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	host := flag.String("host", "localhost:5000", "API server host")
	email := flag.String("email", "", "User email")
	password := flag.String("password", "Passw0rd!", "User password")
	clients := flag.Int("clients", 20, "Number of concurrent sockets")
	relayEvery := flag.Duration("relay", 5*time.Second, "Interval between relayed questionCreated frames (0 disables)")
	duration := flag.Duration("duration", 30*time.Second, "Probe duration")
	flag.BoolVar(&verbose, "v", false, "Log every received frame")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: wsprobe -email <email> [-password <password>] [-host host:port]")
		os.Exit(2)
	}

	log.Printf("Probing ws://%s/api/ws with %d clients for %v", *host, *clients, *duration)

	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, token, i, *relayEvery, stopChan, &wg)
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-time.After(*duration):
		log.Println("Probe duration reached")
	case <-interrupt:
		log.Println("Interrupted")
	}

	close(stopChan)
	wg.Wait()

	printMetrics()
}

func login(host, email, password string) (string, error) {
	loginURL := fmt.Sprintf("http://%s/api/auth/login", host)
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})

	resp, err := http.Post(loginURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.AccessToken, nil
}

func runClient(host, token string, id int, relayEvery time.Duration, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws"}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	if err := send(c, "login", map[string]string{"token": token}); err != nil {
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}

	go func() {
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			var f frame
			if err := json.Unmarshal(data, &f); err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				continue
			}
			metrics.received(f.Type)
			if verbose {
				log.Printf("client %d <- %s %s", id, f.Type, f.Payload)
			}
		}
	}()

	var tick <-chan time.Time
	if relayEvery > 0 {
		ticker := time.NewTicker(relayEvery)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-stopChan:
			_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-tick:
			payload := map[string]any{"title": fmt.Sprintf("Probe question from client %d?", id)}
			if err := send(c, "questionCreated", payload); err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				return
			}
		}
	}
}

func send(c *websocket.Conn, kind string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(frame{Type: kind, Payload: raw})
	if err != nil {
		return err
	}
	if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
		return err
	}
	atomic.AddInt64(&metrics.FramesSent, 1)
	return nil
}

func printMetrics() {
	log.Println("Probe results")
	log.Printf("Connections attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("Connections failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Frames sent: %d", atomic.LoadInt64(&metrics.FramesSent))
	log.Printf("Frames received: %d", atomic.LoadInt64(&metrics.FramesReceived))

	metrics.mu.Lock()
	kinds := make([]string, 0, len(metrics.byType))
	for k := range metrics.byType {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		log.Printf("  %s: %d", k, metrics.byType[k])
	}
	metrics.mu.Unlock()

	log.Printf("Total errors: %d", atomic.LoadInt64(&metrics.Errors))
}
