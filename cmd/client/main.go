// Command client is a line-oriented console client for manual play and
// debugging. Each input line is `ACTION [json payload]`, e.g.:
//
//	login {"name":"alice"}
//	map {"layer":1}
//	move {"train_idx":1,"speed":1,"line_idx":1}
//	turn
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/udisondev/railgo/internal/protocol"
)

var actions = map[string]protocol.Action{
	"login":    protocol.ActionLogin,
	"logout":   protocol.ActionLogout,
	"move":     protocol.ActionMove,
	"upgrade":  protocol.ActionUpgrade,
	"turn":     protocol.ActionTurn,
	"player":   protocol.ActionPlayer,
	"games":    protocol.ActionGames,
	"map":      protocol.ActionMap,
	"observer": protocol.ActionObserver,
	"game":     protocol.ActionGame,
}

func main() {
	host := flag.String("host", "127.0.0.1", "server host")
	port := flag.Int("port", 2000, "server port")
	flag.Parse()

	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", *host, *port))
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	fmt.Printf("connected to %s:%d\n", *host, *port)
	fmt.Println("commands:", strings.Join(actionNames(), ", "), "- type 'exit' to quit")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			break
		}

		name, payload, _ := strings.Cut(line, " ")
		action, ok := actions[strings.ToLower(name)]
		if !ok {
			fmt.Printf("unknown action %q\n", name)
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload != "" && !gjson.Valid(payload) {
			fmt.Println("payload is not valid JSON")
			continue
		}

		if err := protocol.WriteRequest(conn, action, []byte(payload)); err != nil {
			log.Fatalf("failed to send request: %v", err)
		}
		result, body, err := protocol.ReadResponse(conn)
		if err != nil {
			log.Fatalf("failed to read response: %v", err)
		}

		fmt.Printf("%s\n", result)
		printBody(body)

		if action == protocol.ActionLogout && result == protocol.ResultOkey {
			break
		}
	}
}

func printBody(body []byte) {
	if len(body) == 0 {
		return
	}
	parsed := gjson.ParseBytes(body)
	if errMsg := parsed.Get("error"); errMsg.Exists() {
		fmt.Printf("error: %s\n", errMsg.String())
		return
	}
	fmt.Println(parsed.Get("@pretty").String())
}

func actionNames() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
