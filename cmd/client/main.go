// Command client is a line-mode terminal client for the websocket endpoint.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
)

type WebSocketClient struct {
	conn     *websocket.Conn
	messages chan string
	done     chan struct{}
}

func NewWebSocketClient(serverURL, account string) (*WebSocketClient, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	if account != "" {
		q.Set("account", account)
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	client := &WebSocketClient{
		conn:     conn,
		messages: make(chan string, 100),
		done:     make(chan struct{}),
	}
	go client.readMessages()
	return client, nil
}

func (c *WebSocketClient) readMessages() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				fmt.Printf("WebSocket error: %v\n", err)
			}
			return
		}
		select {
		case c.messages <- string(data):
		case <-c.done:
			return
		}
	}
}

func (c *WebSocketClient) Send(line string) error {
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *WebSocketClient) Close() error {
	close(c.done)
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

func main() {
	serverURL := flag.String("url", "ws://127.0.0.1:4000/ws", "websocket endpoint")
	account := flag.String("account", os.Getenv("USER"), "account to play as")
	flag.Parse()

	client, err := NewWebSocketClient(*serverURL, *account)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to connect:", err)
		os.Exit(1)
	}

	input := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			input <- scanner.Text()
		}
		close(input)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case msg, ok := <-client.messages:
			if !ok {
				fmt.Println("Connection closed.")
				return
			}
			fmt.Println(msg)
		case line, ok := <-input:
			if !ok {
				_ = client.Close()
				return
			}
			if err := client.Send(line); err != nil {
				fmt.Fprintln(os.Stderr, "Send failed:", err)
				return
			}
		case <-stop:
			_ = client.Close()
			return
		}
	}
}
