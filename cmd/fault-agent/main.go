// fault-agent serves the network fault analysis tools over the
// line-oriented JSON protocol on stdin/stdout.
//
// Examples:
//
//	export SPLUNK_MCP_URL=https://backend.internal/ AUTH_TOKEN=...
//	fault-agent
//
//	fault-agent -call analyze_network_fault -args '{"time_range":"4h"}'
//	fault-agent -call get_slot_status
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	json "github.com/alpkeskin/gotoon"
	"github.com/joho/godotenv"

	agent "github.com/Protocol-Lattice/splunk-agent"
	"github.com/Protocol-Lattice/splunk-agent/src/netfault"
)

var (
	flagCall = flag.String("call", "", "Invoke a single tool by name and exit")
	flagArgs = flag.String("args", "{}", "JSON arguments for -call")
)

func main() {
	flag.Parse()

	_ = godotenv.Load()

	ctx := context.Background()

	analysisAgent := netfault.NewFromEnv()
	catalog := agent.NewStaticToolCatalog(netfault.Tools(analysisAgent))

	server, err := agent.NewServer(ctx, "fault-agent", catalog)
	if err != nil {
		log.Fatalf("failed to start server: %v", err)
	}

	if *flagCall != "" {
		args := map[string]any{}
		if err := json.Unmarshal([]byte(*flagArgs), &args); err != nil {
			log.Fatalf("invalid -args: %v", err)
		}
		out, err := server.Call(ctx, *flagCall, args)
		if err != nil {
			log.Fatalf("call %s: %v", *flagCall, err)
		}
		fmt.Println(out)
		return
	}

	log.Printf("fault-agent: serving %d tools", len(catalog.Specs()))
	if err := server.Serve(ctx, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
